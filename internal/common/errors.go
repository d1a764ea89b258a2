// Package common defines shared constants, sentinel errors, and random-token
// helpers used across pantrykeeper components. Callers should use errors.Is
// (or errors.As for the typed errors) to match these values.
package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorStorage      = errors.New("storage failure")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInvalidInput = errors.New("invalid input")
	ErrorConflict     = errors.New("conflict")
	ErrorInvalidState = errors.New("invalid state")
	ErrorForbidden    = errors.New("forbidden")

	// Session lifecycle errors.
	ErrorExpired         = errors.New("session expired")
	ErrorAlreadyInactive = errors.New("session already inactive")

	// Credential errors. A missing user and a wrong password produce the
	// same value so account existence cannot be probed through login.
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// Email verification lifecycle errors.
	ErrorRateLimited          = errors.New("rate limited")
	ErrorAlreadyRegistered    = errors.New("email already registered")
	ErrorAlreadyVerified      = errors.New("email already verified")
	ErrorCodeExpired          = errors.New("verification code expired")
	ErrorCodeMismatch         = errors.New("verification code mismatch")
	ErrorTooManyAttempts      = errors.New("too many verification attempts")
	ErrorEmailTaken           = errors.New("email taken")
	ErrorVerificationRequired = errors.New("email verification required")
)

// RateLimitedError reports how long the caller has to wait before a new
// verification code may be issued. It matches ErrorRateLimited via errors.Is.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	total := int(e.Remaining.Round(time.Second).Seconds())
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("rate limited, retry in %d:%02d", total/60, total%60)
}

func (e *RateLimitedError) Unwrap() error { return ErrorRateLimited }

// ItemLookupError identifies the first food item reference that failed
// during job submission. Index is the position in the submitted list.
// It matches ErrorNotFound or ErrorForbidden via errors.Is, depending on
// whether the item is absent or owned by another user.
type ItemLookupError struct {
	Index  int
	ItemID string
	Err    error
}

func (e *ItemLookupError) Error() string {
	return fmt.Sprintf("food item lookup failed: [%d] %s: %v", e.Index, e.ItemID, e.Err)
}

func (e *ItemLookupError) Unwrap() error { return e.Err }
