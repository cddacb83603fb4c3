package session

// Package session contains a simple hand-written in-memory double for
// the session store port. It is lightweight and suitable for unit
// tests without codegen.

import (
	"context"
	"sync"

	realsession "github.com/artmixer/atelier/internal/session"
)

// Ensure compile-time conformance to the store port.
var _ realsession.Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory session store with optional error
// injection for exercising failure paths.
type MemoryStore struct {
	mu   sync.Mutex
	sess realsession.Session
	held bool

	LoadErr  error
	SaveErr  error
	ClearErr error

	// SaveCount tracks how many times Save was called.
	SaveCount int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed pre-populates the store with a session, as if a prior run had
// logged in.
func (s *MemoryStore) Seed(sess realsession.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
	s.held = true
}

func (s *MemoryStore) Load(context.Context) (realsession.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return realsession.Session{}, s.LoadErr
	}
	if !s.held {
		return realsession.Session{}, realsession.ErrNotFound
	}
	return s.sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess realsession.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCount++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.sess = sess
	s.held = true
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.sess = realsession.Session{}
	s.held = false
	return nil
}
