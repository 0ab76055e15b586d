package chatreq

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wellnest/internal/actors"
	"github.com/wellnest/internal/chat"
)

// materialize evaluates the materialization rules after a successful
// accept. The caller holds the per-request lock, so acceptedCount and the
// chat write cannot interleave with another response to the same request.
//
// Returns the chat the acceptor ended up in (nil when the threshold is not
// met yet) and whether the consistency-repair fallback fired.
func (m *Manager) materialize(ctx context.Context, req *ChatRequest, acceptor actors.Ref) (*chat.Chat, bool, error) {
	accepted := req.AcceptedCount()

	switch {
	case req.Mode == ModePrivate:
		// One invitee only: the accept that lands here is the sole
		// possible transition to a chat.
		if accepted != 2 {
			return nil, false, nil
		}
		c, err := m.createChat(ctx, req)
		return c, false, err

	case req.MaterializedChatID == "":
		if accepted < 2 {
			return nil, false, nil
		}
		// First materialization takes every currently-accepted invitee,
		// not just the ones that crossed the threshold.
		c, err := m.createChat(ctx, req)
		return c, false, err

	default:
		c, err := m.chats.Get(ctx, req.MaterializedChatID)
		if errors.Is(err, chat.ErrNotFound) {
			// The request points at a chat that no longer exists.
			// Recreate from the full accepted set instead of failing.
			log.Warn().
				Str("request_id", req.ID).
				Str("missing_chat_id", req.MaterializedChatID).
				Msg("consistency repaired: materialized chat missing, recreating")
			recreated, cerr := m.createChat(ctx, req)
			return recreated, true, cerr
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to load materialized chat: %w", err)
		}
		if err := m.growChat(ctx, c, req, acceptor); err != nil {
			return nil, false, err
		}
		return c, false, nil
	}
}

// createChat materializes a chat from the owner plus every
// currently-accepted invitee and points the request at it.
func (m *Manager) createChat(ctx context.Context, req *ChatRequest) (*chat.Chat, error) {
	c := &chat.Chat{
		ID:           uuid.NewString(),
		IsGroup:      req.Mode == ModeGroup,
		Label:        req.GroupLabel,
		Participants: req.AcceptedRefs(),
	}

	if err := m.chats.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	if err := m.store.SetMaterializedChat(ctx, req.ID, c.ID); err != nil {
		return nil, fmt.Errorf("failed to set materialized chat: %w", err)
	}
	req.MaterializedChatID = c.ID

	for _, ref := range c.Participants {
		if err := m.directory.AppendChat(ctx, ref, c.ID); err != nil {
			return nil, fmt.Errorf("failed to append chat for %s: %w", ref, err)
		}
	}

	if err := m.notifier.ChatMaterialized(ctx, c, req); err != nil {
		log.Warn().Err(err).Str("chat_id", c.ID).Msg("failed to enqueue chat-materialized notification")
	}

	log.Info().
		Str("request_id", req.ID).
		Str("chat_id", c.ID).
		Int("participants", len(c.Participants)).
		Bool("is_group", c.IsGroup).
		Msg("chat materialized")

	return c, nil
}

// growChat appends the acceptor to an already-materialized chat. Growth is
// idempotent: an acceptor already present leaves the chat untouched.
func (m *Manager) growChat(ctx context.Context, c *chat.Chat, req *ChatRequest, acceptor actors.Ref) error {
	if !c.HasParticipant(acceptor) {
		if err := m.chats.AddParticipant(ctx, c.ID, acceptor); err != nil {
			return fmt.Errorf("failed to grow chat: %w", err)
		}
		c.Participants = append(c.Participants, acceptor)

		if err := m.notifier.ChatGrown(ctx, c, req, acceptor); err != nil {
			log.Warn().Err(err).Str("chat_id", c.ID).Msg("failed to enqueue chat-grown notification")
		}

		log.Info().
			Str("request_id", req.ID).
			Str("chat_id", c.ID).
			Str("actor", acceptor.String()).
			Msg("chat grown")
	}

	return m.directory.AppendChat(ctx, acceptor, c.ID)
}
