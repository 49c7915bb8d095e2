package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/profile"
)

// Bridge keeps a profile store's identity in sync with a Provider.
//
// Start installs the change subscription before the initial session check
// runs, so a change that races the check is never lost. Both paths write the
// same fields and the last write wins.
type Bridge struct {
	provider Provider
	store    *profile.Store

	mu      sync.Mutex
	loading bool
	closed  bool
	started bool
	current *models.Session
	sub     Subscription
	cancel  context.CancelFunc

	ready chan struct{}
	wg    sync.WaitGroup
}

// NewBridge creates a bridge between provider and store. Call Start to begin.
func NewBridge(provider Provider, store *profile.Store) *Bridge {
	return &Bridge{
		provider: provider,
		store:    store,
		loading:  true,
		ready:    make(chan struct{}),
	}
}

// Start subscribes to session changes and kicks off the initial session
// check in the background. It is a no-op after the first call.
func (b *Bridge) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started || b.closed {
		b.mu.Unlock()
		return
	}
	b.started = true
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.mu.Unlock()

	sub, err := b.provider.OnSessionChange(ctx, b.handleChange)
	if err != nil {
		slog.Warn("failed to subscribe to session changes", "error", err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		return
	}
	b.sub = sub
	b.wg.Add(1)
	b.mu.Unlock()

	go b.initialCheck(ctx)
}

// IsLoading is true until the initial session check has resolved
func (b *Bridge) IsLoading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Ready is closed once the initial session check has resolved
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// SignOut ends the session through the provider and clears the profile
// without waiting for the provider's change event.
func (b *Bridge) SignOut(ctx context.Context) error {
	if err := b.provider.SignOut(ctx); err != nil {
		return err
	}
	b.apply(nil)
	return nil
}

// Close releases the subscription and abandons an outstanding initial
// check. Changes arriving afterwards are ignored.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	sub := b.sub
	b.sub = nil
	if b.cancel != nil {
		b.cancel()
	}
	b.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	b.wg.Wait()
}

func (b *Bridge) initialCheck(ctx context.Context) {
	defer b.wg.Done()

	sess, err := b.provider.GetCurrentSession(ctx)
	if err != nil {
		// An error and "no session" are handled the same way
		slog.Warn("initial session check failed", "error", err)
		sess = nil
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	b.apply(sess)

	b.mu.Lock()
	if b.loading {
		b.loading = false
		close(b.ready)
	}
	b.mu.Unlock()
}

func (b *Bridge) handleChange(change models.SessionChange) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}

	slog.Debug("session changed", "event", change.Event, "has_session", change.Session != nil)
	b.apply(change.Session)
}

// apply writes session identity into the store, or clears it
func (b *Bridge) apply(sess *models.Session) {
	b.mu.Lock()
	b.current = sess
	b.mu.Unlock()

	if sess == nil || sess.User == nil {
		b.store.Clear()
		return
	}
	b.store.MergeIdentity(sess.User.ID, sess.User.Email, sess.User.DisplayName())
}
