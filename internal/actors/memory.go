package actors

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryDirectory is an in-memory Directory used by tests.
type MemoryDirectory struct {
	mu               sync.Mutex
	actors           map[Ref]*Actor
	chats            map[Ref][]string
	sentRequests     map[Ref][]string
	receivedRequests map[Ref][]string
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		actors:           make(map[Ref]*Actor),
		chats:            make(map[Ref][]string),
		sentRequests:     make(map[Ref][]string),
		receivedRequests: make(map[Ref][]string),
	}
}

// Add registers an actor so it can be resolved.
func (d *MemoryDirectory) Add(ref Ref, displayName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actors[ref] = &Actor{Ref: ref, DisplayName: displayName, CreatedAt: time.Now()}
}

func (d *MemoryDirectory) Resolve(_ context.Context, ref Ref) (*Actor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	actor, ok := d.actors[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	copied := *actor
	return &copied, nil
}

func (d *MemoryDirectory) AppendChat(_ context.Context, ref Ref, chatID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chats[ref] = appendUnique(d.chats[ref], chatID)
	return nil
}

func (d *MemoryDirectory) AppendSentRequest(_ context.Context, ref Ref, requestID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sentRequests[ref] = appendUnique(d.sentRequests[ref], requestID)
	return nil
}

func (d *MemoryDirectory) AppendReceivedRequest(_ context.Context, ref Ref, requestID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receivedRequests[ref] = appendUnique(d.receivedRequests[ref], requestID)
	return nil
}

// Chats returns a copy of the actor's chats back-reference list.
func (d *MemoryDirectory) Chats(ref Ref) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.chats[ref]...)
}

// SentRequests returns a copy of the actor's sent-requests list.
func (d *MemoryDirectory) SentRequests(ref Ref) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sentRequests[ref]...)
}

// ReceivedRequests returns a copy of the actor's received-requests list.
func (d *MemoryDirectory) ReceivedRequests(ref Ref) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.receivedRequests[ref]...)
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
