// Package verifications persists email verification records: one row per
// email carrying the current code, the verified flag, and the attempt counter.
package verifications

import (
	"context"

	"github.com/jspark-dev/pantrykeeper/internal/server/models"
)

// Repository is the storage contract for verification records.
type Repository interface {
	// Get returns the record for the email, or common.ErrorNotFound.
	Get(ctx context.Context, email string) (*models.VerificationRecord, error)

	// Create inserts a fresh unverified record with the given code.
	Create(ctx context.Context, email, code string) error

	// ResetCode replaces the code, clears the verified flag and the attempt
	// counter, and restarts the code age from now.
	ResetCode(ctx context.Context, email, code string) error

	// IncrementAttempts bumps the attempt counter and the updated timestamp.
	IncrementAttempts(ctx context.Context, email string) error

	// MarkVerified sets the terminal verified flag.
	MarkVerified(ctx context.Context, email string) error
}
