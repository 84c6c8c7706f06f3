// Package models holds the client-side view of the provider session, the
// user it asserts, and the application profile attached to that user.
package models

import "time"

// User is the identity asserted by a Session. The client only mirrors it.
type User struct {
	ID       string
	Email    string
	Metadata map[string]string
}

// Session is the provider-issued token bundle. It is never mutated locally.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Expired reports whether the access token is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
