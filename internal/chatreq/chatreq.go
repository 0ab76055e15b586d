// Package chatreq owns the chat-request negotiation lifecycle: creation of
// negotiation records, per-participant accept/reject tracking, and the
// decision of when a negotiated request materializes into a live chat.
package chatreq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wellnest/internal/actors"
	"github.com/wellnest/internal/chat"
)

// Mode distinguishes one-to-one requests from group negotiations.
type Mode string

const (
	ModePrivate Mode = "private"
	ModeGroup   Mode = "group"
)

// ParseMode converts a wire value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePrivate:
		return ModePrivate, nil
	case ModeGroup:
		return ModeGroup, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrValidation, s)
	}
}

// Decision is an invitee's response to a request.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision converts a wire value into a Decision.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", fmt.Errorf("%w: unknown decision %q", ErrValidation, s)
	}
}

// ParticipantStatus tracks one invitee's position in the negotiation.
// An entry transitions exactly once, pending to accepted or rejected;
// re-invitation requires a new request.
type ParticipantStatus string

const (
	StatusPending  ParticipantStatus = "pending"
	StatusAccepted ParticipantStatus = "accepted"
	StatusRejected ParticipantStatus = "rejected"
)

// Participant is one invited actor's entry on a request. The owner is not
// listed; they count as an implicit initial accepted member.
type Participant struct {
	Actor         actors.Ref        `json:"actor"`
	Status        ParticipantStatus `json:"status"`
	AffinityScore *float64          `json:"affinity_score"`
}

// Reason carries the context attached to a request at creation time.
type Reason struct {
	AffinityRequested bool   `json:"affinity_requested"`
	FreeText          string `json:"free_text,omitempty"`
}

// ChatRequest is the negotiation record preceding a chat's existence.
type ChatRequest struct {
	ID                 string        `json:"id"`
	Owner              actors.Ref    `json:"owner"`
	Mode               Mode          `json:"mode"`
	GroupLabel         string        `json:"group_label,omitempty"`
	Participants       []Participant `json:"participants"`
	Reason             Reason        `json:"reason"`
	MaterializedChatID string        `json:"materialized_chat_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Participant returns the entry for the given actor, or nil if the actor
// was not invited.
func (r *ChatRequest) Participant(ref actors.Ref) *Participant {
	for i := range r.Participants {
		if r.Participants[i].Actor == ref {
			return &r.Participants[i]
		}
	}
	return nil
}

// AcceptedCount is 1 (the owner) plus the number of accepted invitees.
// The owner is counted explicitly rather than scanned for, so they can
// never be double counted.
func (r *ChatRequest) AcceptedCount() int {
	count := 1
	for i := range r.Participants {
		if r.Participants[i].Status == StatusAccepted {
			count++
		}
	}
	return count
}

// AcceptedRefs returns the owner followed by all currently-accepted
// invitees in invitation order.
func (r *ChatRequest) AcceptedRefs() []actors.Ref {
	refs := []actors.Ref{r.Owner}
	for i := range r.Participants {
		if r.Participants[i].Status == StatusAccepted {
			refs = append(refs, r.Participants[i].Actor)
		}
	}
	return refs
}

var (
	// ErrValidation indicates a malformed create or respond call,
	// rejected before any write.
	ErrValidation = errors.New("chat request validation failed")
	// ErrNotFound indicates an unknown request id.
	ErrNotFound = errors.New("chat request not found")
	// ErrInvalidState indicates a respond call that conflicts with the
	// participant's recorded decision, or a respond by a non-invited actor.
	ErrInvalidState = errors.New("chat request in invalid state for operation")
)

// Store persists chat requests. SetParticipantStatus updates a single
// keyed entry; implementations must not rewrite the whole participant
// list to flip one status.
type Store interface {
	CreateRequest(ctx context.Context, req *ChatRequest) error
	GetRequest(ctx context.Context, id string) (*ChatRequest, error)
	SetParticipantStatus(ctx context.Context, requestID string, ref actors.Ref, status ParticipantStatus) error
	SetMaterializedChat(ctx context.Context, requestID, chatID string) error
	ListForOwner(ctx context.Context, ref actors.Ref) ([]*ChatRequest, error)
	ListForInvitee(ctx context.Context, ref actors.Ref) ([]*ChatRequest, error)
}

// Notifier receives negotiation lifecycle events. Implementations must be
// safe for concurrent use; failures are logged by the manager and never
// fail the underlying mutation.
type Notifier interface {
	RequestCreated(ctx context.Context, req *ChatRequest) error
	ChatMaterialized(ctx context.Context, c *chat.Chat, req *ChatRequest) error
	ChatGrown(ctx context.Context, c *chat.Chat, req *ChatRequest, joined actors.Ref) error
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) RequestCreated(context.Context, *ChatRequest) error { return nil }
func (NopNotifier) ChatMaterialized(context.Context, *chat.Chat, *ChatRequest) error {
	return nil
}
func (NopNotifier) ChatGrown(context.Context, *chat.Chat, *ChatRequest, actors.Ref) error {
	return nil
}
