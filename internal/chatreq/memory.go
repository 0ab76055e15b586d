package chatreq

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wellnest/internal/actors"
)

// MemoryStore is an in-memory request store used by tests.
type MemoryStore struct {
	mu       sync.Mutex
	requests map[string]*ChatRequest
}

// NewMemoryStore creates an empty in-memory request store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*ChatRequest)}
}

func (s *MemoryStore) CreateRequest(_ context.Context, req *ChatRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return fmt.Errorf("chat request already exists: %s", req.ID)
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	s.requests[req.ID] = copyRequest(req)
	return nil
}

func (s *MemoryStore) GetRequest(_ context.Context, id string) (*ChatRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyRequest(req), nil
}

func (s *MemoryStore) SetParticipantStatus(_ context.Context, requestID string, ref actors.Ref, status ParticipantStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	entry := req.Participant(ref)
	if entry == nil {
		return fmt.Errorf("%w: %s is not invited to request %s", ErrInvalidState, ref, requestID)
	}
	entry.Status = status
	req.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SetMaterializedChat(_ context.Context, requestID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	req.MaterializedChatID = chatID
	req.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListForOwner(_ context.Context, ref actors.Ref) ([]*ChatRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ChatRequest
	for _, req := range s.requests {
		if req.Owner == ref {
			out = append(out, copyRequest(req))
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (s *MemoryStore) ListForInvitee(_ context.Context, ref actors.Ref) ([]*ChatRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ChatRequest
	for _, req := range s.requests {
		if req.Participant(ref) != nil {
			out = append(out, copyRequest(req))
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func sortByCreatedAt(reqs []*ChatRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}

func copyRequest(req *ChatRequest) *ChatRequest {
	copied := *req
	copied.Participants = make([]Participant, len(req.Participants))
	for i, p := range req.Participants {
		copied.Participants[i] = p
		if p.AffinityScore != nil {
			score := *p.AffinityScore
			copied.Participants[i].AffinityScore = &score
		}
	}
	return &copied
}
