// Package users persists registered accounts.
package users

import (
	"context"

	"github.com/jspark-dev/pantrykeeper/internal/server/models"
)

// Repository is the storage contract for user accounts.
type Repository interface {
	// Create inserts a new user row. The caller provides the generated ID
	// and the hashed credentials.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user owning the email, or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user by its opaque ID, or common.ErrorNotFound.
	GetByID(ctx context.Context, uid string) (*models.User, error)

	// ExistsByEmail reports whether an account already owns the email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// SetProfileURL updates the user's profile image URL.
	SetProfileURL(ctx context.Context, uid, url string) error

	// Delete removes the user row.
	Delete(ctx context.Context, uid string) error
}
