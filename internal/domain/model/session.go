package model

import "time"

// Session is the authenticated identity and token set reported by the backend.
// It exists only while the backend reports an authenticated state.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// HasToken reports whether the session carries a bearer token usable for
// privileged requests.
func (s Session) HasToken() bool {
	return s.AccessToken != ""
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthEvent is a single auth-state change notification. Session is nil for
// SIGNED_OUT.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}
