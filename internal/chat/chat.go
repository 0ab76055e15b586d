package chat

import (
	"context"
	"errors"
	"time"

	"github.com/wellnest/internal/actors"
)

// Chat is a materialized conversation. Its participant set only grows
// through this subsystem, never shrinks.
type Chat struct {
	ID           string       `json:"id"`
	IsGroup      bool         `json:"is_group"`
	Label        string       `json:"label"`
	Participants []actors.Ref `json:"participants"`
	CreatedAt    time.Time    `json:"created_at"`
}

// HasParticipant reports whether the actor is already in the chat.
func (c *Chat) HasParticipant(ref actors.Ref) bool {
	for _, p := range c.Participants {
		if p == ref {
			return true
		}
	}
	return false
}

// ErrNotFound indicates the chat does not exist.
var ErrNotFound = errors.New("chat not found")

// Store holds materialized chats. The messaging transport that consumes
// them is out of scope here.
type Store interface {
	Create(ctx context.Context, c *Chat) error
	Get(ctx context.Context, id string) (*Chat, error)
	// AddParticipant appends an actor to the chat with set semantics;
	// adding an existing participant is a no-op.
	AddParticipant(ctx context.Context, id string, ref actors.Ref) error
	ListForActor(ctx context.Context, ref actors.Ref) ([]*Chat, error)
}
