package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/skillify/internal/models"
)

// MemoryProvider is an in-process Provider holding at most one session.
// Listeners are called synchronously from SignIn, SignOut and UpdateUser.
type MemoryProvider struct {
	mu        sync.Mutex
	session   *models.Session
	nextID    int
	listeners map[int]func(models.SessionChange)

	// CheckGate, when set, makes GetCurrentSession block until it is closed
	CheckGate chan struct{}
	// CheckErr, when set, is returned by GetCurrentSession
	CheckErr error
}

// NewMemoryProvider creates a provider with no session
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		listeners: make(map[int]func(models.SessionChange)),
	}
}

// SignIn opens a session for user and notifies listeners
func (p *MemoryProvider) SignIn(user models.SessionUser, ttl time.Duration) *models.Session {
	now := time.Now().UTC()
	sess := &models.Session{
		ID:        uuid.New().String(),
		User:      &user,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	p.mu.Lock()
	p.session = sess
	p.mu.Unlock()

	p.notify(models.SessionChange{Event: models.EventSignedIn, Session: sess})
	return sess
}

// UpdateUser replaces the session user's metadata name and notifies listeners
func (p *MemoryProvider) UpdateUser(name string) {
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		return
	}
	user := *p.session.User
	user.Metadata = map[string]string{models.MetadataName: name}
	sess := *p.session
	sess.User = &user
	p.session = &sess
	p.mu.Unlock()

	p.notify(models.SessionChange{Event: models.EventUserUpdated, Session: &sess})
}

// OnSessionChange implements Provider
func (p *MemoryProvider) OnSessionChange(_ context.Context, fn func(models.SessionChange)) (Subscription, error) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return SubscriptionFunc(func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}), nil
}

// GetCurrentSession implements Provider
func (p *MemoryProvider) GetCurrentSession(ctx context.Context) (*models.Session, error) {
	if p.CheckGate != nil {
		select {
		case <-p.CheckGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.CheckErr != nil {
		return nil, p.CheckErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil || p.session.IsExpired() {
		return nil, nil
	}
	return p.session, nil
}

// SignOut implements Provider
func (p *MemoryProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()

	p.notify(models.SessionChange{Event: models.EventSignedOut})
	return nil
}

// Listeners returns the number of registered listeners
func (p *MemoryProvider) Listeners() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

func (p *MemoryProvider) notify(change models.SessionChange) {
	p.mu.Lock()
	fns := make([]func(models.SessionChange), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
