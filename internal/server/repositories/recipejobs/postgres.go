package recipejobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jspark-dev/pantrykeeper/internal/common"
	"github.com/jspark-dev/pantrykeeper/internal/dbx"
	"github.com/jspark-dev/pantrykeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const jobColumns = `rjid, uid, status, generated_text, usage_input_tokens, usage_output_tokens, updated_at, created_at`

func (r *PostgresRepository) Create(ctx context.Context, job *models.RecipeJob, itemIDs []string) error {
	query := `
		INSERT INTO recipe_jobs (rjid, uid, status)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, job.ID, job.UserID, job.Status); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	itemQuery := `
		INSERT INTO recipe_job_items (rjid, fid, position)
		VALUES ($1, $2, $3)
	`
	for i, fid := range itemIDs {
		if _, err := r.db.ExecContext(ctx, itemQuery, job.ID, fid, i); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, rjid string) (*models.RecipeJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM recipe_jobs
		WHERE rjid = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, rjid))
}

func (r *PostgresRepository) GetForUser(ctx context.Context, uid, rjid string) (*models.RecipeJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM recipe_jobs
		WHERE rjid = $1 AND uid = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, rjid, uid))
}

func (r *PostgresRepository) ItemIDs(ctx context.Context, rjid string) ([]string, error) {
	query := `
		SELECT fid
		FROM recipe_job_items
		WHERE rjid = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, rjid)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var fid string
		if err := rows.Scan(&fid); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, fid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, rjid string, status models.JobStatus) error {
	query := `
		UPDATE recipe_jobs
		SET status = $2, updated_at = now()
		WHERE rjid = $1
	`
	if _, err := r.db.ExecContext(ctx, query, rjid, status); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetResult(ctx context.Context, rjid, text string, inputTokens, outputTokens int64) error {
	query := `
		UPDATE recipe_jobs
		SET status = $2, generated_text = $3, usage_input_tokens = $4, usage_output_tokens = $5, updated_at = now()
		WHERE rjid = $1
	`
	_, err := r.db.ExecContext(ctx, query, rjid, models.JobStatusCompleted, text, inputTokens, outputTokens)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.RecipeJob, error) {
	job := &models.RecipeJob{}
	err := row.Scan(&job.ID, &job.UserID, &job.Status, &job.GeneratedText,
		&job.InputTokens, &job.OutputTokens, &job.UpdatedAt, &job.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return job, nil
}
