// Package workspace keeps one profile store, session bridge and task runner
// per signed-in session.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/skillify/internal/content"
	"github.com/terra-clan/skillify/internal/gate"
	"github.com/terra-clan/skillify/internal/planner"
	"github.com/terra-clan/skillify/internal/profile"
	"github.com/terra-clan/skillify/internal/session"
	"github.com/terra-clan/skillify/internal/tasks"
)

// ErrClosed is returned by Acquire after Close
var ErrClosed = errors.New("workspace manager closed")

// Resolver maps a bearer token to its session id and provider
type Resolver interface {
	Resolve(token string) (sessionID string, provider session.Provider, err error)
}

// ResolverFunc adapts a plain func to Resolver
type ResolverFunc func(token string) (string, session.Provider, error)

// Resolve calls f
func (f ResolverFunc) Resolve(token string) (string, session.Provider, error) { return f(token) }

// Options configures new workspaces
type Options struct {
	Planner         planner.Options
	ChatTypingDelay time.Duration
}

// Workspace is the state of one browser session
type Workspace struct {
	SessionID string
	Store     *profile.Store
	Bridge    *session.Bridge
	Runner    *tasks.Runner
	Planner   *planner.Planner
	Chat      *planner.Chat
	Interview *planner.Interview

	mu       sync.Mutex
	lastUsed time.Time
	streams  int
	closed   bool
	done     chan struct{}
}

// Touch marks the workspace as used now
func (w *Workspace) Touch() {
	w.mu.Lock()
	w.lastUsed = time.Now()
	w.mu.Unlock()
}

// LastUsed returns when the workspace was last acquired
func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// OpenStream marks a live event stream on the workspace. The workspace is
// never idle while a stream is open. release is safe to call more than once.
func (w *Workspace) OpenStream() (release func()) {
	w.mu.Lock()
	w.streams++
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			w.streams--
			w.lastUsed = time.Now()
			w.mu.Unlock()
		})
	}
}

// Done is closed when the workspace is closed
func (w *Workspace) Done() <-chan struct{} {
	return w.done
}

func (w *Workspace) idleSince(before time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.streams == 0 && w.lastUsed.Before(before)
}

// GateState reports what the access gate needs to know
func (w *Workspace) GateState() gate.State {
	return gate.State{
		Loading:       w.Bridge.IsLoading(),
		Authenticated: w.Store.Profile() != nil,
	}
}

// Flags returns the step-completion flags of the store
func (w *Workspace) Flags() gate.Flags {
	snap := w.Store.Snapshot()
	return gate.Flags{CVUploaded: snap.CVUploaded, DreamJobSet: snap.DreamJobSet}
}

// Close stops the bridge, then cancels outstanding tasks
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	w.Bridge.Close()
	w.Runner.Close()
}

// Manager owns the workspaces of all live sessions
type Manager struct {
	resolver Resolver
	catalog  *content.Catalog
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	workspaces map[string]*Workspace
	closed     bool
}

// NewManager creates a manager. Workspaces draw their content from catalog.
func NewManager(resolver Resolver, catalog *content.Catalog, opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		resolver:   resolver,
		catalog:    catalog,
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
		workspaces: make(map[string]*Workspace),
	}
}

// Acquire returns the workspace of token's session, creating and starting
// it on first use
func (m *Manager) Acquire(token string) (*Workspace, error) {
	sessionID, provider, err := m.resolver.Resolve(token)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if w, ok := m.workspaces[sessionID]; ok {
		m.mu.Unlock()
		w.Touch()
		return w, nil
	}
	m.mu.Unlock()

	w := m.build(sessionID, provider)
	w.Bridge.Start(m.ctx)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		w.Close()
		return nil, ErrClosed
	}
	if existing, ok := m.workspaces[sessionID]; ok {
		// Lost a race with a concurrent first request
		m.mu.Unlock()
		w.Close()
		existing.Touch()
		return existing, nil
	}
	m.workspaces[sessionID] = w
	count := len(m.workspaces)
	m.mu.Unlock()

	slog.Info("workspace created", "session_id", sessionID, "workspaces", count)
	return w, nil
}

// Get returns the workspace of a session without creating one
func (m *Manager) Get(sessionID string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workspaces[sessionID]
	return w, ok
}

// Remove closes and forgets the workspace of a session
func (m *Manager) Remove(sessionID string) bool {
	m.mu.Lock()
	w, ok := m.workspaces[sessionID]
	delete(m.workspaces, sessionID)
	m.mu.Unlock()

	if ok {
		w.Close()
		slog.Info("workspace removed", "session_id", sessionID)
	}
	return ok
}

// Idle lists the sessions whose workspaces have not been used since before
// and have no open event stream
func (m *Manager) Idle(before time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, w := range m.workspaces {
		if w.idleSince(before) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of live workspaces
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// Close closes every workspace. Acquire fails afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	all := m.workspaces
	m.workspaces = make(map[string]*Workspace)
	m.mu.Unlock()

	m.cancel()
	for _, w := range all {
		w.Close()
	}
	slog.Info("workspaces closed", "count", len(all))
}

func (m *Manager) build(sessionID string, provider session.Provider) *Workspace {
	store := profile.NewStore()
	runner := tasks.NewRunner()
	return &Workspace{
		SessionID: sessionID,
		Store:     store,
		Bridge:    session.NewBridge(provider, store),
		Runner:    runner,
		Planner:   planner.New(store, runner, m.catalog, m.opts.Planner),
		Chat:      planner.NewChat(store, runner, m.opts.ChatTypingDelay),
		Interview: planner.NewInterview(m.catalog, store),
		lastUsed:  time.Now(),
		done:      make(chan struct{}),
	}
}
