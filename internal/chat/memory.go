package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wellnest/internal/actors"
)

// MemoryStore is an in-memory chat store used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	chats map[string]*Chat
}

// NewMemoryStore creates an empty in-memory chat store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[string]*Chat)}
}

func (s *MemoryStore) Create(_ context.Context, c *Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[c.ID]; ok {
		return fmt.Errorf("chat already exists: %s", c.ID)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.chats[c.ID] = copyChat(c)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyChat(c), nil
}

func (s *MemoryStore) AddParticipant(_ context.Context, id string, ref actors.Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !c.HasParticipant(ref) {
		c.Participants = append(c.Participants, ref)
	}
	return nil
}

func (s *MemoryStore) ListForActor(_ context.Context, ref actors.Ref) ([]*Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Chat
	for _, c := range s.chats {
		if c.HasParticipant(ref) {
			out = append(out, copyChat(c))
		}
	}
	return out, nil
}

// Delete removes a chat. Only tests use it, to simulate a chat that went
// missing underneath a materialized request.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, id)
}

// Len returns the number of stored chats.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

func copyChat(c *Chat) *Chat {
	copied := *c
	copied.Participants = append([]actors.Ref(nil), c.Participants...)
	return &copied
}
