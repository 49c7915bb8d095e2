// Package tasks runs the short-lived background jobs behind the planner
// screens (CV processing, dream-job planning, chat typing delay).
//
// Each job is submitted with an optional slot key. A newer job in the same
// slot supersedes the older one: the older job is cancelled and its result
// is never applied.
package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrSuperseded = errors.New("task superseded by a newer submission")
	ErrCanceled   = errors.New("task canceled")
	ErrClosed     = errors.New("runner is closed")
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
	StatusCanceled   Status = "canceled"
)

// Func is the work of a task
type Func[T any] func(ctx context.Context) (T, error)

// Runner owns the goroutines of every submitted task
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	slots  map[string]*slot
	closed bool
	wg     sync.WaitGroup
}

type slot struct {
	id     string
	cancel context.CancelCauseFunc
}

// NewRunner creates a runner
func NewRunner() *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		ctx:    ctx,
		cancel: cancel,
		slots:  make(map[string]*slot),
	}
}

// Close cancels every outstanding task and waits for their goroutines
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

// Task is a handle on a submitted job
type Task[T any] struct {
	id   string
	slot string
	done chan struct{}

	mu     sync.Mutex
	status Status
	result T
	err    error
}

// ID returns the task id
func (t *Task[T]) ID() string { return t.id }

// Done is closed once the task reaches a terminal state
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Status returns the current state
func (t *Task[T]) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Wait blocks until the task finishes or ctx is done
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (t *Task[T]) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

func (t *Task[T]) finish(s Status, result T, err error) {
	t.mu.Lock()
	t.status = s
	t.result = result
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

// Submit schedules fn to run after delay. When fn succeeds and the task is
// still the newest in its slot, apply receives the result. An empty slot
// never supersedes anything.
//
// apply runs while the runner holds its lock and must not submit tasks.
func Submit[T any](r *Runner, slotKey string, delay time.Duration, fn Func[T], apply func(T)) *Task[T] {
	t := &Task[T]{
		id:     uuid.New().String(),
		slot:   slotKey,
		done:   make(chan struct{}),
		status: StatusPending,
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		var zero T
		t.finish(StatusCanceled, zero, ErrClosed)
		return t
	}

	ctx, cancel := context.WithCancelCause(r.ctx)
	if slotKey != "" {
		if prev, ok := r.slots[slotKey]; ok {
			prev.cancel(ErrSuperseded)
			slog.Debug("task superseded", "slot", slotKey, "task_id", prev.id, "by", t.id)
		}
		r.slots[slotKey] = &slot{id: t.id, cancel: cancel}
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go run(ctx, r, cancel, t, delay, fn, apply)
	return t
}

func run[T any](ctx context.Context, r *Runner, cancel context.CancelCauseFunc, t *Task[T], delay time.Duration, fn Func[T], apply func(T)) {
	defer r.wg.Done()
	defer cancel(nil)

	var zero T

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			r.release(t.slot, t.id)
			t.finish(abortStatus(ctx), zero, abortErr(ctx))
			return
		}
	}

	t.setStatus(StatusRunning)
	result, err := fn(ctx)

	r.mu.Lock()
	current := t.slot == "" || (r.slots[t.slot] != nil && r.slots[t.slot].id == t.id)
	if current && t.slot != "" {
		delete(r.slots, t.slot)
	}
	switch {
	case ctx.Err() != nil:
		r.mu.Unlock()
		t.finish(abortStatus(ctx), zero, abortErr(ctx))
		return
	case err != nil:
		r.mu.Unlock()
		slog.Warn("task failed", "slot", t.slot, "task_id", t.id, "error", err)
		t.finish(StatusFailed, zero, err)
		return
	case !current:
		r.mu.Unlock()
		t.finish(StatusSuperseded, zero, ErrSuperseded)
		return
	}
	if apply != nil {
		apply(result)
	}
	r.mu.Unlock()

	t.finish(StatusDone, result, nil)
}

// release forgets slot if it still points at task id
func (r *Runner) release(slotKey, id string) {
	if slotKey == "" {
		return
	}
	r.mu.Lock()
	if s, ok := r.slots[slotKey]; ok && s.id == id {
		delete(r.slots, slotKey)
	}
	r.mu.Unlock()
}

func abortStatus(ctx context.Context) Status {
	if errors.Is(context.Cause(ctx), ErrSuperseded) {
		return StatusSuperseded
	}
	return StatusCanceled
}

func abortErr(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), ErrSuperseded) {
		return ErrSuperseded
	}
	return ErrCanceled
}
