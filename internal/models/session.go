package models

import (
	"time"
)

// SessionEvent names a session state change pushed by the auth provider
type SessionEvent string

const (
	EventInitialSession SessionEvent = "initial_session"
	EventSignedIn       SessionEvent = "signed_in"
	EventSignedOut      SessionEvent = "signed_out"
	EventUserUpdated    SessionEvent = "user_updated"
	EventTokenRefreshed SessionEvent = "token_refreshed"
)

// MetadataName is the user metadata key holding the display name
const MetadataName = "name"

// SessionUser is the user attached to an auth session
type SessionUser struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DisplayName returns the metadata name, or "" when absent
func (u *SessionUser) DisplayName() string {
	if u == nil {
		return ""
	}
	return u.Metadata[MetadataName]
}

// Session is an authenticated session issued by the auth provider
type Session struct {
	ID        string       `json:"id"`
	User      *SessionUser `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// IsExpired checks if the session TTL has elapsed
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TimeRemaining returns the duration until expiry (0 if expired)
func (s *Session) TimeRemaining() time.Duration {
	remaining := time.Until(s.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionChange is a single notification from the auth provider.
// Session is nil when the user signed out.
type SessionChange struct {
	Event   SessionEvent `json:"event"`
	Session *Session     `json:"session"`
}

// SignUpRequest represents a request to create an account
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// SignInRequest represents a request to open a session
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after sign-up or sign-in
type AuthResponse struct {
	Token     string    `json:"token"`
	Session   *Session  `json:"session"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UpdateUserRequest changes user metadata
type UpdateUserRequest struct {
	Name string `json:"name"`
}
