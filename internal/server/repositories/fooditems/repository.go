// Package fooditems is the read/delete side of the food registry used by
// this core: ownership-checked lookups for job submission and the cascade
// delete on account removal. Barcode ingestion lives outside this module.
package fooditems

import (
	"context"

	"github.com/jspark-dev/pantrykeeper/internal/server/models"
)

// Repository is the storage contract for food items.
type Repository interface {
	// GetForUser returns the item only if it belongs to the user,
	// otherwise common.ErrorNotFound.
	GetForUser(ctx context.Context, uid, fid string) (*models.FoodItem, error)

	// Exists reports whether the item exists for any user. Together with
	// GetForUser this lets callers tell "absent" from "not yours".
	Exists(ctx context.Context, fid string) (bool, error)

	// DeleteByUser removes every item owned by the user.
	DeleteByUser(ctx context.Context, uid string) error
}
