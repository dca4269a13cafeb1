package store

import (
	"context"
	"fmt"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	members map[string]Member
	emails  map[string]string
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		members: make(map[string]Member),
		emails:  make(map[string]string),
	}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, m Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email := NormalizeEmail(m.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; ok {
		return fmt.Errorf("member %s: %w", m.ID, ErrConflict)
	}
	if _, ok := s.emails[email]; ok {
		return fmt.Errorf("email %s: %w", m.Email, ErrConflict)
	}
	s.members[m.ID] = m
	s.emails[email] = m.ID
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (Member, error) {
	if err := ctx.Err(); err != nil {
		return Member{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return Member{}, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	return m, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of stored members.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}
