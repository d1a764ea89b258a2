// Package recipejobs persists recipe generation jobs and their ordered
// food item associations.
package recipejobs

import (
	"context"

	"github.com/jspark-dev/pantrykeeper/internal/server/models"
)

// Repository is the storage contract for recipe jobs.
type Repository interface {
	// Create inserts the job row and its item associations in submission
	// order. Callers run it inside a transaction so a failed association
	// insert leaves no partial job behind.
	Create(ctx context.Context, job *models.RecipeJob, itemIDs []string) error

	// Get returns the job by ID, or common.ErrorNotFound.
	Get(ctx context.Context, rjid string) (*models.RecipeJob, error)

	// GetForUser returns the job only if owned by the user, otherwise
	// common.ErrorNotFound. Ownership and absence are deliberately
	// indistinguishable here.
	GetForUser(ctx context.Context, uid, rjid string) (*models.RecipeJob, error)

	// ItemIDs returns the associated food item IDs in submission order.
	ItemIDs(ctx context.Context, rjid string) ([]string, error)

	// SetStatus updates the job status and the updated timestamp.
	SetStatus(ctx context.Context, rjid string, status models.JobStatus) error

	// SetResult stores the generated text plus token usage and moves the
	// job to completed.
	SetResult(ctx context.Context, rjid, text string, inputTokens, outputTokens int64) error
}
