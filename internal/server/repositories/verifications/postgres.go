package verifications

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

func (r *PostgresRepository) Get(ctx context.Context, email string) (*models.VerificationRecord, error) {
	query := `
		SELECT email, code, verified, attempt_count, updated_at, created_at
		FROM email_verifications
		WHERE email = $1
	`
	rec := &models.VerificationRecord{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&rec.Email, &rec.Code, &rec.Verified, &rec.AttemptCount, &rec.UpdatedAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Create(ctx context.Context, email, code string) error {
	query := `
		INSERT INTO email_verifications (email, code)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, email, code); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ResetCode(ctx context.Context, email, code string) error {
	query := `
		UPDATE email_verifications
		SET code = $2, verified = FALSE, attempt_count = 0, updated_at = now(), created_at = now()
		WHERE email = $1
	`
	if _, err := r.db.ExecContext(ctx, query, email, code); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IncrementAttempts(ctx context.Context, email string) error {
	query := `
		UPDATE email_verifications
		SET attempt_count = attempt_count + 1, updated_at = now()
		WHERE email = $1
	`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, email string) error {
	query := `
		UPDATE email_verifications
		SET verified = TRUE, updated_at = now()
		WHERE email = $1
	`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
