// Package models defines the typed records persisted by the server:
// verification records, user accounts, sessions, food items, and recipe jobs.
package models

import "time"

// VerificationRecord tracks the email verification lifecycle. There is at
// most one record per email; Verified=true is terminal and the record is
// consumed when a user account is created against the email.
type VerificationRecord struct {
	Email        string
	Code         string
	Verified     bool
	AttemptCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CodeAge returns how long ago the current code was issued. CreatedAt is
// reset whenever a new code is generated.
func (v *VerificationRecord) CodeAge(now time.Time) time.Duration {
	return now.Sub(v.CreatedAt)
}
