package chatreq

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wellnest/internal/actors"
	"github.com/wellnest/internal/affinity"
	"github.com/wellnest/internal/chat"
	"github.com/wellnest/internal/profile"
)

// Manager owns the chat-request lifecycle: validated creation, eager
// affinity annotation, per-participant responses, and materialization.
type Manager struct {
	store     Store
	chats     chat.Store
	directory actors.Directory
	profiles  profile.Store
	notifier  Notifier
	locks     *requestLocks
	attrs     []string
}

// NewManager creates a manager wired to its collaborators. Pass
// NopNotifier{} when no notification queue is configured.
func NewManager(store Store, chats chat.Store, directory actors.Directory, profiles profile.Store, notifier Notifier) *Manager {
	return &Manager{
		store:     store,
		chats:     chats,
		directory: directory,
		profiles:  profiles,
		notifier:  notifier,
		locks:     newRequestLocks(),
		attrs:     profile.ComparableAttributes,
	}
}

// CreateInput is the validated payload for creating a chat request. The
// owner identity arrives separately, from the authenticated request layer.
type CreateInput struct {
	Mode       Mode
	Invitees   []actors.Ref
	GroupLabel string
	Reason     Reason
}

// Create validates the input, resolves every invitee, eagerly computes
// affinity scores when requested, and persists the request with all
// participant statuses pending. No partial writes are observable on
// failure: validation and invitee resolution both happen before the
// first write.
func (m *Manager) Create(ctx context.Context, owner actors.Ref, in CreateInput) (*ChatRequest, error) {
	if err := validateCreate(owner, in); err != nil {
		return nil, err
	}

	for _, invitee := range in.Invitees {
		if _, err := m.directory.Resolve(ctx, invitee); err != nil {
			if errors.Is(err, actors.ErrNotFound) {
				return nil, fmt.Errorf("%w: invitee %s", ErrNotFound, invitee)
			}
			return nil, fmt.Errorf("failed to resolve invitee %s: %w", invitee, err)
		}
	}

	participants := make([]Participant, 0, len(in.Invitees))
	for _, invitee := range in.Invitees {
		participants = append(participants, Participant{Actor: invitee, Status: StatusPending})
	}

	if in.Reason.AffinityRequested {
		if err := m.scoreParticipants(ctx, owner, participants); err != nil {
			return nil, err
		}
	}

	req := &ChatRequest{
		ID:           uuid.NewString(),
		Owner:        owner,
		Mode:         in.Mode,
		GroupLabel:   in.GroupLabel,
		Participants: participants,
		Reason:       in.Reason,
	}

	if err := m.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}

	if err := m.directory.AppendSentRequest(ctx, owner, req.ID); err != nil {
		return nil, fmt.Errorf("failed to append sent request for %s: %w", owner, err)
	}
	for _, invitee := range in.Invitees {
		if err := m.directory.AppendReceivedRequest(ctx, invitee, req.ID); err != nil {
			return nil, fmt.Errorf("failed to append received request for %s: %w", invitee, err)
		}
	}

	if err := m.notifier.RequestCreated(ctx, req); err != nil {
		log.Warn().Err(err).Str("request_id", req.ID).Msg("failed to enqueue request-created notification")
	}

	log.Info().
		Str("request_id", req.ID).
		Str("owner", owner.String()).
		Str("mode", string(in.Mode)).
		Int("invitees", len(in.Invitees)).
		Msg("chat request created")

	return req, nil
}

// RespondResult is what the caller observes synchronously after a
// response: the updated request, the chat that was materialized or grown
// (nil otherwise), and whether the consistency-repair fallback fired.
type RespondResult struct {
	Request  *ChatRequest `json:"request"`
	Chat     *chat.Chat   `json:"chat"`
	Repaired bool         `json:"repaired,omitempty"`
}

// Respond records an invitee's decision and, on accept, runs the
// materializer before returning. The whole sequence is serialized per
// request id; responses to different requests proceed in parallel.
//
// Repeating the same decision is an idempotent no-op. Repeating a
// different decision fails with ErrInvalidState and leaves the first
// decision intact.
func (m *Manager) Respond(ctx context.Context, requestID string, actor actors.Ref, d Decision) (*RespondResult, error) {
	if d != DecisionAccept && d != DecisionReject {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, d)
	}

	m.locks.lock(requestID)
	defer m.locks.unlock(requestID)

	req, err := m.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	entry := req.Participant(actor)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s is not invited to request %s", ErrInvalidState, actor, requestID)
	}

	target := StatusRejected
	if d == DecisionAccept {
		target = StatusAccepted
	}

	if entry.Status != StatusPending {
		if entry.Status == target {
			return m.noopResult(ctx, req)
		}
		return nil, fmt.Errorf("%w: %s already responded %s to request %s", ErrInvalidState, actor, entry.Status, requestID)
	}

	if err := m.store.SetParticipantStatus(ctx, requestID, actor, target); err != nil {
		return nil, fmt.Errorf("failed to set participant status: %w", err)
	}
	entry.Status = target

	result := &RespondResult{Request: req}
	if d == DecisionAccept {
		materialized, repaired, err := m.materialize(ctx, req, actor)
		if err != nil {
			return nil, err
		}
		result.Chat = materialized
		result.Repaired = repaired
	}

	log.Info().
		Str("request_id", requestID).
		Str("actor", actor.String()).
		Str("decision", string(d)).
		Bool("materialized", result.Chat != nil).
		Msg("chat request response recorded")

	return result, nil
}

// GetForActor returns the request if the actor is its owner or an invitee.
func (m *Manager) GetForActor(ctx context.Context, requestID string, actor actors.Ref) (*ChatRequest, error) {
	req, err := m.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Owner != actor && req.Participant(actor) == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	return req, nil
}

// ListSent returns the requests the actor initiated.
func (m *Manager) ListSent(ctx context.Context, actor actors.Ref) ([]*ChatRequest, error) {
	return m.store.ListForOwner(ctx, actor)
}

// ListReceived returns the requests the actor was invited to.
func (m *Manager) ListReceived(ctx context.Context, actor actors.Ref) ([]*ChatRequest, error) {
	return m.store.ListForInvitee(ctx, actor)
}

// noopResult reproduces the observable state of the original call for an
// idempotent repeat, including the materialized chat when one exists.
func (m *Manager) noopResult(ctx context.Context, req *ChatRequest) (*RespondResult, error) {
	result := &RespondResult{Request: req}
	if req.MaterializedChatID != "" {
		c, err := m.chats.Get(ctx, req.MaterializedChatID)
		if err != nil && !errors.Is(err, chat.ErrNotFound) {
			return nil, err
		}
		result.Chat = c
	}
	return result, nil
}

func (m *Manager) scoreParticipants(ctx context.Context, owner actors.Ref, participants []Participant) error {
	ownerProfile, err := m.profiles.Get(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to load owner profile: %w", err)
	}

	for i := range participants {
		if ownerProfile == nil {
			continue
		}
		inviteeProfile, err := m.profiles.Get(ctx, participants[i].Actor)
		if err != nil {
			return fmt.Errorf("failed to load profile for %s: %w", participants[i].Actor, err)
		}
		if inviteeProfile == nil {
			continue
		}
		score := affinity.Score(ownerProfile, inviteeProfile, m.attrs)
		participants[i].AffinityScore = &score
	}
	return nil
}

func validateCreate(owner actors.Ref, in CreateInput) error {
	if len(in.Invitees) == 0 {
		return fmt.Errorf("%w: at least one invitee is required", ErrValidation)
	}

	seen := make(map[actors.Ref]bool, len(in.Invitees))
	for _, invitee := range in.Invitees {
		if invitee == owner {
			return fmt.Errorf("%w: owner cannot invite themselves", ErrValidation)
		}
		if seen[invitee] {
			return fmt.Errorf("%w: duplicate invitee %s", ErrValidation, invitee)
		}
		seen[invitee] = true
	}

	switch in.Mode {
	case ModePrivate:
		if len(in.Invitees) != 1 {
			return fmt.Errorf("%w: private requests take exactly one invitee", ErrValidation)
		}
		if in.GroupLabel != "" {
			return fmt.Errorf("%w: private requests cannot carry a group label", ErrValidation)
		}
	case ModeGroup:
		if len(in.Invitees) < 2 {
			return fmt.Errorf("%w: group requests take at least two invitees", ErrValidation)
		}
		if in.GroupLabel == "" {
			return fmt.Errorf("%w: group requests require a group label", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrValidation, in.Mode)
	}

	return nil
}
