package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func value[T any](v T) Func[T] {
	return func(context.Context) (T, error) { return v, nil }
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSubmitAppliesResult(t *testing.T) {
	r := NewRunner()
	defer r.Close()

	var applied atomic.Value
	task := Submit(r, "cv", 10*time.Millisecond, value("done"), func(s string) { applied.Store(s) })

	got, err := task.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, "done", applied.Load())
	assert.Equal(t, StatusDone, task.Status())
	assert.Equal(t, 0, r.active())
}

func TestNewerTaskSupersedesOlder(t *testing.T) {
	r := NewRunner()
	defer r.Close()

	var applied []string
	apply := func(s string) { applied = append(applied, s) }

	first := Submit(r, "dream-job", time.Hour, value("first"), apply)
	second := Submit(r, "dream-job", 0, value("second"), apply)

	_, err := first.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, StatusSuperseded, first.Status())

	got, err := second.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "second", got)
	assert.Equal(t, []string{"second"}, applied)
}

func TestSupersededWhileRunningIsNotApplied(t *testing.T) {
	r := NewRunner()
	defer r.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	}

	var applied atomic.Int32
	apply := func(v int) { applied.Add(int32(v)) }

	first := Submit(r, "slot", 0, slow, apply)
	<-started
	second := Submit(r, "slot", 0, value(10), apply)
	_, err := second.Wait(waitCtx(t))
	require.NoError(t, err)

	close(release)
	_, err = first.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, int32(10), applied.Load())
}

func TestEmptySlotNeverSupersedes(t *testing.T) {
	r := NewRunner()
	defer r.Close()

	var count atomic.Int32
	a := Submit(r, "", 5*time.Millisecond, value(1), func(int) { count.Add(1) })
	b := Submit(r, "", 5*time.Millisecond, value(2), func(int) { count.Add(1) })

	_, err := a.Wait(waitCtx(t))
	require.NoError(t, err)
	_, err = b.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, int32(2), count.Load())
}

func TestFailedTaskIsNotApplied(t *testing.T) {
	r := NewRunner()
	defer r.Close()

	boom := errors.New("boom")
	called := false
	task := Submit(r, "x", 0, func(context.Context) (string, error) { return "", boom }, func(string) { called = true })

	_, err := task.Wait(waitCtx(t))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusFailed, task.Status())
	assert.False(t, called)
}

func TestCloseCancelsPendingTasks(t *testing.T) {
	r := NewRunner()

	called := false
	task := Submit(r, "cv", time.Hour, value(true), func(bool) { called = true })
	assert.Equal(t, StatusPending, task.Status())
	assert.Equal(t, 1, r.active())

	r.Close()
	<-task.Done()
	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, StatusCanceled, task.Status())
	assert.False(t, called)

	// closing twice is fine
	r.Close()
}

func TestSubmitAfterClose(t *testing.T) {
	r := NewRunner()
	r.Close()

	task := Submit(r, "cv", 0, value(1), nil)
	select {
	case <-task.Done():
	default:
		t.Fatal("task should be finished immediately")
	}
	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWaitHonoursContext(t *testing.T) {
	r := NewRunner()
	defer r.Close()

	task := Submit(r, "slow", time.Hour, value(1), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := task.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, task.Status().terminal())
}

func (s Status) terminal() bool {
	switch s {
	case StatusDone, StatusFailed, StatusSuperseded, StatusCanceled:
		return true
	}
	return false
}

// active returns the number of slots with an unfinished task
func (r *Runner) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}
