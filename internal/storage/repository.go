// Package storage persists the accounts of the auth provider.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/skillify/internal/models"
)

// ErrDuplicateEmail is returned when an account with the email exists
var ErrDuplicateEmail = errors.New("email already registered")

// AccountRepository defines the interface for account persistence.
// Lookups return (nil, nil) when nothing matches.
type AccountRepository interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	UpdateAccountName(ctx context.Context, id, name string) error
	TouchLastSignIn(ctx context.Context, id string, at time.Time) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
