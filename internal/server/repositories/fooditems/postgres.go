package fooditems

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

func (r *PostgresRepository) GetForUser(ctx context.Context, uid, fid string) (*models.FoodItem, error) {
	query := `
		SELECT fid, uid, name, type, volume, count, image_url, barcode, expires_at, created_at
		FROM foods
		WHERE fid = $1 AND uid = $2
	`
	item := &models.FoodItem{}
	err := r.db.QueryRowContext(ctx, query, fid, uid).
		Scan(&item.ID, &item.UserID, &item.Name, &item.Type, &item.Volume,
			&item.Count, &item.ImageURL, &item.Barcode, &item.ExpiresAt, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, fid string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM foods WHERE fid = $1)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, fid).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, uid string) error {
	query := `
		DELETE FROM foods
		WHERE uid = $1
	`
	if _, err := r.db.ExecContext(ctx, query, uid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
