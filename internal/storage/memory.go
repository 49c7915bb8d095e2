package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/terra-clan/skillify/internal/models"
)

// MemoryRepository keeps accounts in process memory. Used for development
// without PostgreSQL and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Account
	byEmail map[string]string
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
}

// CreateAccount stores a copy of a
func (r *MemoryRepository) CreateAccount(_ context.Context, a *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[a.Email]; ok {
		return ErrDuplicateEmail
	}
	cp := *a
	r.byID[a.ID] = &cp
	r.byEmail[a.Email] = a.ID
	return nil
}

// GetAccountByEmail returns a copy of the account, or nil
func (r *MemoryRepository) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

// GetAccountByID returns a copy of the account, or nil
func (r *MemoryRepository) GetAccountByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// UpdateAccountName changes the display name
func (r *MemoryRepository) UpdateAccountName(_ context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	a.Name = name
	return nil
}

// TouchLastSignIn records a successful sign-in
func (r *MemoryRepository) TouchLastSignIn(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.byID[id]; ok {
		a.LastSignInAt = &at
	}
	return nil
}

// Ping always succeeds
func (r *MemoryRepository) Ping(context.Context) error { return nil }

// Close is a no-op
func (r *MemoryRepository) Close() error { return nil }
