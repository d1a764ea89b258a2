package repomanager

import (
	"context"
	"database/sql"

	"github.com/jspark-dev/pantrykeeper/internal/dbx"
	"github.com/jspark-dev/pantrykeeper/internal/server/migrations"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/fooditems"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/recipejobs"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/sessions"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/users"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/verifications"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories and exposes
// a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Verifications(db dbx.DBTX) verifications.Repository {
	return verifications.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) FoodItems(db dbx.DBTX) fooditems.Repository {
	return fooditems.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RecipeJobs(db dbx.DBTX) recipejobs.Repository {
	return recipejobs.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and applies them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
