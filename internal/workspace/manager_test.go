package workspace

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/terra-clan/skillify/internal/content"
	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errUnknownToken = errors.New("unknown token")

// tokens maps token strings straight to in-memory providers
type tokens struct {
	mu        sync.Mutex
	providers map[string]*session.MemoryProvider
}

func (tk *tokens) add(token string, signedIn bool) *session.MemoryProvider {
	p := session.NewMemoryProvider()
	if signedIn {
		p.SignIn(models.SessionUser{
			ID:       "user-" + token,
			Email:    token + "@example.com",
			Metadata: map[string]string{models.MetadataName: "User " + token},
		}, time.Hour)
	}
	tk.mu.Lock()
	tk.providers[token] = p
	tk.mu.Unlock()
	return p
}

func (tk *tokens) Resolve(token string) (string, session.Provider, error) {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	p, ok := tk.providers[token]
	if !ok {
		return "", nil, errUnknownToken
	}
	return "session-" + token, p, nil
}

func newManager(t *testing.T) (*Manager, *tokens) {
	t.Helper()
	loader := content.NewLoader()
	require.NoError(t, loader.LoadDefaults())

	tk := &tokens{providers: make(map[string]*session.MemoryProvider)}
	m := NewManager(tk, loader.Catalog(), Options{})
	t.Cleanup(m.Close)
	return m, tk
}

func ready(t *testing.T, w *Workspace) {
	t.Helper()
	select {
	case <-w.Bridge.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("workspace bridge did not become ready")
	}
}

func TestAcquireCreatesOneWorkspacePerSession(t *testing.T) {
	m, tk := newManager(t)
	tk.add("a", true)
	tk.add("b", true)

	wa, err := m.Acquire("a")
	require.NoError(t, err)
	ready(t, wa)
	assert.Equal(t, "session-a", wa.SessionID)
	require.NotNil(t, wa.Store.Profile())
	assert.Equal(t, "User a", wa.Store.Profile().Name)

	again, err := m.Acquire("a")
	require.NoError(t, err)
	assert.Same(t, wa, again)

	wb, err := m.Acquire("b")
	require.NoError(t, err)
	assert.NotSame(t, wa, wb)
	assert.Equal(t, 2, m.Len())

	got, ok := m.Get("session-b")
	require.True(t, ok)
	assert.Same(t, wb, got)
}

func TestAcquireUnknownToken(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Acquire("nope")
	assert.ErrorIs(t, err, errUnknownToken)
	assert.Equal(t, 0, m.Len())
}

func TestGateStateFollowsBridge(t *testing.T) {
	m, tk := newManager(t)
	p := tk.add("gated", false)
	p.CheckGate = make(chan struct{})

	w, err := m.Acquire("gated")
	require.NoError(t, err)
	assert.True(t, w.GateState().Loading)

	close(p.CheckGate)
	ready(t, w)
	assert.False(t, w.GateState().Loading)
	assert.False(t, w.GateState().Authenticated)

	p.SignIn(models.SessionUser{ID: "u", Email: "u@example.com"}, time.Hour)
	assert.True(t, w.GateState().Authenticated)

	w.Store.SetCVUploaded(true)
	assert.Equal(t, true, w.Flags().CVUploaded)
	assert.Equal(t, false, w.Flags().DreamJobSet)
}

func TestIdleAndRemove(t *testing.T) {
	m, tk := newManager(t)
	tk.add("old", true)
	tk.add("new", true)

	old, err := m.Acquire("old")
	require.NoError(t, err)
	old.mu.Lock()
	old.lastUsed = time.Now().Add(-time.Hour)
	old.mu.Unlock()

	_, err = m.Acquire("new")
	require.NoError(t, err)

	idle := m.Idle(time.Now().Add(-time.Minute))
	assert.Equal(t, []string{"session-old"}, idle)

	assert.True(t, m.Remove("session-old"))
	assert.False(t, m.Remove("session-old"))
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, tk.providers["old"].Listeners())
}

func TestOpenStreamKeepsWorkspaceAlive(t *testing.T) {
	m, tk := newManager(t)
	tk.add("a", true)

	w, err := m.Acquire("a")
	require.NoError(t, err)

	release := w.OpenStream()
	assert.Empty(t, m.Idle(time.Now().Add(time.Hour)))

	release()
	release()
	assert.Equal(t, []string{"session-a"}, m.Idle(time.Now().Add(time.Hour)))

	select {
	case <-w.Done():
		t.Fatal("workspace closed too early")
	default:
	}
	assert.True(t, m.Remove("session-a"))
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Remove")
	}
}

func TestAcquireAfterClose(t *testing.T) {
	m, tk := newManager(t)
	tk.add("a", true)
	_, err := m.Acquire("a")
	require.NoError(t, err)

	m.Close()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, tk.providers["a"].Listeners())

	_, err = m.Acquire("a")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConcurrentFirstAcquire(t *testing.T) {
	m, tk := newManager(t)
	tk.add("race", true)

	var wg sync.WaitGroup
	got := make([]*Workspace, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := m.Acquire("race")
			assert.NoError(t, err)
			got[i] = w
		}(i)
	}
	wg.Wait()

	for _, w := range got[1:] {
		assert.Same(t, got[0], w)
	}
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, tk.providers["race"].Listeners())
}
