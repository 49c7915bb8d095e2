package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Evictor is the part of the workspace manager the cleaner needs
type Evictor interface {
	Idle(before time.Time) []string
	Remove(sessionID string) bool
}

// Cleaner handles periodic eviction of idle workspaces
type Cleaner struct {
	workspaces  Evictor
	interval    time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

// NewCleaner creates a new cleanup worker
func NewCleaner(workspaces Evictor, interval, idleTimeout time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}

	return &Cleaner{
		workspaces:  workspaces,
		interval:    interval,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Run is the main loop for the cleanup worker. It returns when ctx is done.
func (c *Cleaner) Run(ctx context.Context) error {
	slog.Info("cleanup worker started", "interval", c.interval, "idle_timeout", c.idleTimeout)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return nil
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep evicts every workspace idle for longer than the timeout and returns
// how many were removed
func (c *Cleaner) Sweep() int {
	slog.Debug("running cleanup cycle")

	idle := c.workspaces.Idle(c.now().Add(-c.idleTimeout))
	if len(idle) == 0 {
		slog.Debug("no idle workspaces found")
		return 0
	}

	slog.Info("found idle workspaces", "count", len(idle))

	removed := 0
	for _, id := range idle {
		if c.workspaces.Remove(id) {
			removed++
		}
	}
	return removed
}
