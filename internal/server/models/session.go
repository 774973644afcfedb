package models

import "time"

// Session is the registry entry for a user's current refresh token. There is
// at most one per user; only the SHA-256 of the token is kept.
type Session struct {
	UserID     string
	TokenHash  string
	Generation int64
	IssuedAt   time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

// Active reports whether the session can still be used at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
