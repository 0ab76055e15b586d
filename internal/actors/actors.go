package actors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies which actor collection a reference points into.
type Kind string

const (
	KindMember     Kind = "member"
	KindSpecialist Kind = "specialist"
)

// ParseKind converts a wire value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindMember:
		return KindMember, nil
	case KindSpecialist:
		return KindSpecialist, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Ref is a tagged reference to an actor in either collection.
// Directory implementations dispatch on Kind internally; callers never
// branch on it.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// String returns a stable "kind:id" form used in logs and limiter keys.
func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID
}

// Actor is a resolved directory entry.
type Actor struct {
	Ref
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	// ErrNotFound indicates the referenced actor does not exist.
	ErrNotFound = errors.New("actor not found")
	// ErrUnknownKind indicates an actor kind outside the closed enum.
	ErrUnknownKind = errors.New("unknown actor kind")
)

// Directory resolves actor references and maintains the per-actor
// back-reference lists. All appends are idempotent: re-appending a value
// that is already present is a no-op, never an error.
type Directory interface {
	Resolve(ctx context.Context, ref Ref) (*Actor, error)
	AppendChat(ctx context.Context, ref Ref, chatID string) error
	AppendSentRequest(ctx context.Context, ref Ref, requestID string) error
	AppendReceivedRequest(ctx context.Context, ref Ref, requestID string) error
}
