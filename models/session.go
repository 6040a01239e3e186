package models

import (
	"fmt"
	"time"
)

// Session struct for storing session data
type Session struct {
	Token        string `json:"token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	CreatedAt    string `json:"created_at"`
	ExpiresAt    string `json:"expires_at"`
	LastActivity string `json:"last_activity"`
	UserAgent    string `json:"user_agent"`
	IPAddress    string `json:"ip_address"`
}

// Expiry parses ExpiresAt, which is stored as RFC 3339.
func (s Session) Expiry() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s.ExpiresAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("session expiry %q: %w", s.ExpiresAt, err)
	}
	return t, nil
}
