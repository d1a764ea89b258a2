package sessions

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

const sessionColumns = `sid, uid, user_agent, ip_address, is_active, expires_at, last_accessed, created_at`

func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (sid, uid, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.UserAgent, session.ClientIP, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, sid string) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE sid = $1
	`
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, sid).
		Scan(&s.ID, &s.UserID, &s.UserAgent, &s.ClientIP, &s.Active,
			&s.ExpiresAt, &s.LastAccessedAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, uid string) ([]*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE uid = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []*models.Session
	for rows.Next() {
		s := &models.Session{}
		err := rows.Scan(&s.ID, &s.UserID, &s.UserAgent, &s.ClientIP, &s.Active,
			&s.ExpiresAt, &s.LastAccessedAt, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) MarkInactive(ctx context.Context, sid string) error {
	query := `
		UPDATE user_sessions
		SET is_active = FALSE
		WHERE sid = $1
	`
	if _, err := r.db.ExecContext(ctx, query, sid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeactivateBeyondNewest(ctx context.Context, uid string, keep int) error {
	query := `
		UPDATE user_sessions
		SET is_active = FALSE
		WHERE uid = $1 AND sid NOT IN (
			SELECT sid FROM user_sessions
			WHERE uid = $1
			ORDER BY created_at DESC
			LIMIT $2
		)
	`
	if _, err := r.db.ExecContext(ctx, query, uid, keep); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeactivateAllForUser(ctx context.Context, uid string) error {
	query := `
		UPDATE user_sessions
		SET is_active = FALSE
		WHERE uid = $1
	`
	if _, err := r.db.ExecContext(ctx, query, uid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) TouchLastAccessed(ctx context.Context, sid string) error {
	query := `
		UPDATE user_sessions
		SET last_accessed = now()
		WHERE sid = $1
	`
	if _, err := r.db.ExecContext(ctx, query, sid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
