// Package session adapts an external auth provider's push-based session
// notifications into profile store identity.
package session

import (
	"context"

	"github.com/terra-clan/skillify/internal/models"
)

// Provider is the boundary to the external auth/session service
type Provider interface {
	// OnSessionChange registers fn for every future session change. The
	// subscription is installed when the call returns.
	OnSessionChange(ctx context.Context, fn func(models.SessionChange)) (Subscription, error)

	// GetCurrentSession returns the active session, or nil when there is none
	GetCurrentSession(ctx context.Context) (*models.Session, error)

	// SignOut ends the current session
	SignOut(ctx context.Context) error
}

// Subscription is a handle to a registered change listener
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a plain func to Subscription
type SubscriptionFunc func()

// Unsubscribe calls f
func (f SubscriptionFunc) Unsubscribe() { f() }
