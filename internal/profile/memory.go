package profile

import (
	"context"
	"sync"

	"github.com/wellnest/internal/actors"
)

// MemoryStore is an in-memory profile store used by tests.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[actors.Ref]map[string]string
}

// NewMemoryStore creates an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[actors.Ref]map[string]string)}
}

// Put stores the attributes for an actor, replacing any existing profile.
func (s *MemoryStore) Put(ref actors.Ref, attributes map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]string, len(attributes))
	for k, v := range attributes {
		copied[k] = v
	}
	s.profiles[ref] = copied
}

func (s *MemoryStore) Get(_ context.Context, ref actors.Ref) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs, ok := s.profiles[ref]
	if !ok {
		return nil, nil
	}
	copied := make(map[string]string, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return &Profile{Actor: ref, Attributes: copied}, nil
}
