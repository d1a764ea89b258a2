// Package sessions persists bearer sessions and the per-user rotation cap.
package sessions

import (
	"context"

	"github.com/jspark-dev/pantrykeeper/internal/server/models"
)

// Repository is the storage contract for sessions.
type Repository interface {
	// Create inserts a new active session row.
	Create(ctx context.Context, session *models.Session) error

	// Get returns the session by ID, or common.ErrorNotFound.
	Get(ctx context.Context, sid string) (*models.Session, error)

	// ListByUser returns all sessions of a user, newest first.
	ListByUser(ctx context.Context, uid string) ([]*models.Session, error)

	// MarkInactive flips a single session to inactive.
	MarkInactive(ctx context.Context, sid string) error

	// DeactivateBeyondNewest marks inactive every session of the user past
	// the keep most-recently-created ones. Run inside the same transaction
	// as Create so concurrent logins cannot leave more than keep active rows.
	DeactivateBeyondNewest(ctx context.Context, uid string, keep int) error

	// DeactivateAllForUser marks every session of the user inactive.
	DeactivateAllForUser(ctx context.Context, uid string) error

	// TouchLastAccessed updates the last access timestamp.
	TouchLastAccessed(ctx context.Context, sid string) error
}
