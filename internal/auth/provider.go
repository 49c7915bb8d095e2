package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/session"
)

// SessionProvider is the session.Provider of one signed token. Changes
// arrive over the session's Redis channel.
type SessionProvider struct {
	service   *Service
	sessionID string
}

var _ session.Provider = (*SessionProvider)(nil)

// SessionID returns the session this provider follows
func (p *SessionProvider) SessionID() string {
	return p.sessionID
}

// GetCurrentSession implements session.Provider
func (p *SessionProvider) GetCurrentSession(ctx context.Context) (*models.Session, error) {
	return p.service.sessions.Get(ctx, p.sessionID)
}

// SignOut implements session.Provider
func (p *SessionProvider) SignOut(ctx context.Context) error {
	return p.service.SignOut(ctx, p.sessionID)
}

// OnSessionChange implements session.Provider. fn is called from a single
// goroutine, in publish order.
func (p *SessionProvider) OnSessionChange(ctx context.Context, fn func(models.SessionChange)) (session.Subscription, error) {
	ps, err := p.service.sessions.Subscribe(ctx, p.sessionID)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range ps.Channel() {
			change, err := decodeChange(msg.Payload)
			if err != nil {
				slog.Warn("dropping session change", "session_id", p.sessionID, "error", err)
				continue
			}
			fn(change)
		}
	}()

	var once sync.Once
	return session.SubscriptionFunc(func() {
		once.Do(func() {
			if err := ps.Close(); err != nil {
				slog.Debug("failed to close session subscription", "session_id", p.sessionID, "error", err)
			}
			wg.Wait()
		})
	}), nil
}
