package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a mutex-guarded in-memory Store. It is the reference
// implementation used throughout the test suite and is suitable for
// single-process deployments.
type Memory struct {
	mu         sync.RWMutex
	users      map[string]*UserRecord
	byEmail    map[string]string
	byUsername map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]*UserRecord),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (m *Memory) CreateUser(ctx context.Context, user *UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[user.Email]; ok {
		return ErrDuplicate
	}
	if _, ok := m.byUsername[user.Username]; ok {
		return ErrDuplicate
	}

	rec := user.Clone()
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	m.users[rec.ID] = rec
	m.byEmail[rec.Email] = rec.ID
	m.byUsername[rec.Username] = rec.ID
	return nil
}

func (m *Memory) UserByID(ctx context.Context, id string) (*UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) UserByResetTokenHash(ctx context.Context, hash string) (*UserRecord, error) {
	if hash == "" {
		return nil, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.users {
		if rec.ResetTokenHash == hash {
			return rec.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByVerificationTokenHash(ctx context.Context, hash string) (*UserRecord, error) {
	if hash == "" {
		return nil, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.users {
		if rec.VerificationTokenHash == hash {
			return rec.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Update(ctx context.Context, id string, fn func(*UserRecord) error) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := rec.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()

	m.users[id] = next
	return next.Clone(), nil
}
