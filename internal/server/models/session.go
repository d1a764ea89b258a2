package models

import "time"

// Session is an opaque bearer login context. A session is usable only while
// Active and not past ExpiresAt; expiry is detected lazily on read, there is
// no sweeper. Deactivation is one-directional.
type Session struct {
	ID             string
	UserID         string
	UserAgent      string
	ClientIP       string
	Active         bool
	ExpiresAt      time.Time
	LastAccessedAt time.Time
	CreatedAt      time.Time
}

// ExpiredAt reports whether the session is past its expiry at the given time.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// ValidAt reports whether the session can authenticate a request at the
// given time.
func (s *Session) ValidAt(now time.Time) bool {
	return s.Active && !s.ExpiredAt(now)
}
