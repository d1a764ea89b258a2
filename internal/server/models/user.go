package models

import (
	"database/sql"
	"time"
)

// User is a registered account. The password is stored only as
// PBKDF2(password, PasswordSalt); Email is unique and must have a verified
// VerificationRecord at creation time.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	PasswordSalt []byte
	Name         string
	ProfileURL   sql.NullString
	CreatedAt    time.Time
}
