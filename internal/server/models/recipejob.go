package models

import (
	"database/sql"
	"time"
)

// JobStatus is the recipe job state machine. Transitions are one-directional:
// queued → creating → completed or failed.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusCreating  JobStatus = "creating"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return next == JobStatusCreating
	case JobStatusCreating:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// RecipeJob is an asynchronous unit of work turning a set of owned food
// items into generated recipe text. Item associations are stored separately
// in insertion order.
type RecipeJob struct {
	ID            string
	UserID        string
	Status        JobStatus
	GeneratedText sql.NullString
	InputTokens   int64
	OutputTokens  int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// JobSubmission limits, applied to the distinct item IDs of one submission.
const (
	MinJobItems = 2
	MaxJobItems = 10
)
