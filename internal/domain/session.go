package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a signed-in browser. The backend token never leaves the server;
// the browser only holds an opaque cookie token whose hash is the lookup key.
type Session struct {
	ID           uuid.UUID
	Identity     Identity
	BackendToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
