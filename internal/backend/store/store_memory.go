package store

import (
	"context"
	"sync"

	"veriflow/internal/backend/models"
	dErrors "veriflow/pkg/domain-errors"
)

// InMemorySessionStore keeps records in a map. It is the default store and
// the one unit tests run against.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.SessionRecord
}

// NewMemory builds an empty in-memory store.
func NewMemory() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]*models.SessionRecord),
	}
}

func (s *InMemorySessionStore) Create(_ context.Context, rec *models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[rec.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "session already exists")
	}
	clone := *rec
	s.sessions[rec.ID] = &clone
	return nil
}

func (s *InMemorySessionStore) Get(_ context.Context, id string) (*models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, exists := s.sessions[id]
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	clone := *rec
	return &clone, nil
}

func (s *InMemorySessionStore) Update(_ context.Context, rec *models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[rec.ID]; !exists {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	clone := *rec
	s.sessions[rec.ID] = &clone
	return nil
}

var _ SessionStore = (*InMemorySessionStore)(nil)
