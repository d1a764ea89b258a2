package models

import (
	"database/sql"
	"time"
)

// FoodItem is an inventory row owned by a single user. Registration via
// barcode lookup happens outside this core; the job queue only reads items
// and account deletion removes them.
type FoodItem struct {
	ID        string
	UserID    string
	Name      string
	Type      string
	Volume    sql.NullString
	Count     int
	ImageURL  sql.NullString
	Barcode   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// DaysRemaining returns whole days until the item's expiration date.
// Negative values mean the item is already past it.
func (f *FoodItem) DaysRemaining(now time.Time) int {
	return int(f.ExpiresAt.Sub(now).Hours() / 24)
}
