package models

import (
	"strings"
	"time"
)

// Account is a registered user of the auth provider
type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"` // Never serialize
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// SessionUser converts the account into the user shape carried by sessions
func (a *Account) SessionUser() *SessionUser {
	return &SessionUser{
		ID:       a.ID,
		Email:    a.Email,
		Metadata: map[string]string{MetadataName: a.Name},
	}
}

// MaskedEmail returns the email with the local part hidden, for logging
func (a *Account) MaskedEmail() string {
	return MaskEmail(a.Email)
}

// MaskEmail hides all but the first character of the local part
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
