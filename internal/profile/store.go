// Package profile holds the per-session profile store: the single source of
// truth every screen reads and writes.
package profile

import (
	"sync"

	"github.com/terra-clan/skillify/internal/models"
)

// Snapshot is an immutable view of the store at a given version
type Snapshot struct {
	Version     uint64              `json:"version"`
	Profile     *models.UserProfile `json:"profile"`
	CVUploaded  bool                `json:"cvUploaded"`
	DreamJobSet bool                `json:"dreamJobSet"`
}

// Listener receives a snapshot after every mutation. Listeners run on the
// mutating goroutine after the store lock is released, so they may read or
// mutate the store. Concurrent mutations can deliver out of order; use
// Snapshot.Version to drop stale ones.
type Listener func(Snapshot)

// Store is an observable container for a UserProfile and the two gating
// flags. The zero value is not usable; use NewStore.
type Store struct {
	mu          sync.Mutex
	profile     *models.UserProfile
	cvUploaded  bool
	dreamJobSet bool
	version     uint64

	nextID    uint64
	listeners map[uint64]Listener
}

// NewStore creates an empty store (no profile, flags false)
func NewStore() *Store {
	return &Store{
		listeners: make(map[uint64]Listener),
	}
}

// Subscribe registers a listener and returns a func that removes it.
// The returned func is safe to call more than once.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Snapshot returns the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Profile returns a copy of the current profile, or nil when signed out
func (s *Store) Profile() *models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// CVUploaded reports whether the CV upload flow has completed
func (s *Store) CVUploaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cvUploaded
}

// DreamJobSet reports whether the dream job flow has completed
func (s *Store) DreamJobSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dreamJobSet
}

// SetCVUploaded sets the cvUploaded flag
func (s *Store) SetCVUploaded(v bool) {
	s.mutate(func() { s.cvUploaded = v })
}

// SetDreamJobSet sets the dreamJobSet flag
func (s *Store) SetDreamJobSet(v bool) {
	s.mutate(func() { s.dreamJobSet = v })
}

// UpdateProfile shallow-merges patch into the profile. With no profile the
// patch becomes the profile. Callers are trusted; nothing is validated.
func (s *Store) UpdateProfile(patch models.ProfilePatch) {
	s.mutate(func() {
		if s.profile == nil {
			s.profile = &models.UserProfile{}
		}
		patch.ApplyTo(s.profile)
	})
}

// MergeIdentity sets id, email and name while keeping every other field
func (s *Store) MergeIdentity(id, email, name string) {
	s.UpdateProfile(models.ProfilePatch{
		ID:    &id,
		Email: &email,
		Name:  &name,
	})
}

// Clear drops the profile entirely
func (s *Store) Clear() {
	s.mutate(func() { s.profile = nil })
}

// AddRoadmapItem appends item to the roadmap. No-op without a profile.
func (s *Store) AddRoadmapItem(item models.RoadmapItem) {
	s.mutate(func() {
		if s.profile == nil {
			return
		}
		s.profile.Roadmap = append(s.profile.Roadmap, item)
	})
}

// UpdateRoadmapItem merges patch into the item with the given id.
// Unknown ids leave the roadmap unchanged.
func (s *Store) UpdateRoadmapItem(id string, patch models.RoadmapItemPatch) {
	s.mutate(func() {
		if s.profile == nil {
			return
		}
		for i := range s.profile.Roadmap {
			if s.profile.Roadmap[i].ID == id {
				patch.ApplyTo(&s.profile.Roadmap[i])
			}
		}
	})
}

// AddScheduleItem appends item to the schedule. No-op without a profile.
func (s *Store) AddScheduleItem(item models.ScheduleItem) {
	s.mutate(func() {
		if s.profile == nil {
			return
		}
		s.profile.Schedule = append(s.profile.Schedule, item)
	})
}

// UpdateScheduleItem merges patch into the item with the given id.
// Unknown ids leave the schedule unchanged.
func (s *Store) UpdateScheduleItem(id string, patch models.ScheduleItemPatch) {
	s.mutate(func() {
		if s.profile == nil {
			return
		}
		for i := range s.profile.Schedule {
			if s.profile.Schedule[i].ID == id {
				patch.ApplyTo(&s.profile.Schedule[i])
			}
		}
	})
}

// DeleteScheduleItem removes the item with the given id. Idempotent.
func (s *Store) DeleteScheduleItem(id string) {
	s.mutate(func() {
		if s.profile == nil || s.profile.Schedule == nil {
			return
		}
		kept := make([]models.ScheduleItem, 0, len(s.profile.Schedule))
		for _, item := range s.profile.Schedule {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		s.profile.Schedule = kept
	})
}

// mutate runs fn under the lock, bumps the version and notifies listeners
func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.version++
	snap := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version:     s.version,
		Profile:     s.profile.Clone(),
		CVUploaded:  s.cvUploaded,
		DreamJobSet: s.dreamJobSet,
	}
}
