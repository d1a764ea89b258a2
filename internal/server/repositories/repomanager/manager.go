// Package repomanager vends repository implementations bound to a DBTX,
// so services can run the same repository over a pooled connection or
// inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/jspark-dev/pantrykeeper/internal/dbx"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/fooditems"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/recipejobs"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/sessions"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/users"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/verifications"
)

// RepositoryManager is the factory services depend on.
type RepositoryManager interface {
	Verifications(db dbx.DBTX) verifications.Repository
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	FoodItems(db dbx.DBTX) fooditems.Repository
	RecipeJobs(db dbx.DBTX) recipejobs.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
