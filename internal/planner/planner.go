// Package planner implements the career-planning flows on top of a profile
// store: CV upload, dream job and roadmap, weekly schedule and dashboard.
package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/terra-clan/skillify/internal/content"
	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/profile"
	"github.com/terra-clan/skillify/internal/tasks"
)

// Common errors
var (
	ErrValidation = errors.New("validation failed")
	ErrNoProfile  = errors.New("no active profile")
	ErrNotFound   = errors.New("item not found")
)

// NoticeError is a validation failure carrying the message shown to the user
type NoticeError struct {
	Notice models.Notice
}

func (e *NoticeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Notice.Title, e.Notice.Description)
}

func (e *NoticeError) Unwrap() error { return ErrValidation }

func invalid(title, description string) error {
	return &NoticeError{Notice: models.Notice{
		Title:       title,
		Description: description,
		Variant:     models.NoticeDestructive,
	}}
}

// Options tunes the simulated processing steps
type Options struct {
	CVDelay        time.Duration
	DreamJobDelay  time.Duration
	MaxUploadBytes int64
}

// Outcome is the result of a completed flow: a notice and the screen to go
// to next
type Outcome struct {
	Notice models.Notice `json:"notice"`
	Next   string        `json:"next,omitempty"`
}

// Task slots. A resubmission in the same slot replaces the earlier one.
const (
	slotCV       = "cv"
	slotDreamJob = "dream-job"
)

// Planner runs the planning flows of one workspace
type Planner struct {
	store   *profile.Store
	runner  *tasks.Runner
	catalog *content.Catalog
	opts    Options
}

// New creates a planner
func New(store *profile.Store, runner *tasks.Runner, catalog *content.Catalog, opts Options) *Planner {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Planner{
		store:   store,
		runner:  runner,
		catalog: catalog,
		opts:    opts,
	}
}

// profile returns a copy of the current profile or ErrNoProfile
func (p *Planner) profile() (*models.UserProfile, error) {
	prof := p.store.Profile()
	if prof == nil {
		return nil, ErrNoProfile
	}
	return prof, nil
}
