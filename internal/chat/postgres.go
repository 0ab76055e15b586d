package chat

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wellnest/internal/actors"
)

// PostgresStore stores chats in the chats and chat_participants tables.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a chat store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create persists a chat and its initial participant set.
func (s *PostgresStore) Create(ctx context.Context, c *Chat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO chats (id, is_group, label, created_at)
	VALUES ($1, $2, $3, NOW())
	RETURNING created_at
	`
	if err := tx.QueryRowContext(ctx, query, c.ID, c.IsGroup, c.Label).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	for _, ref := range c.Participants {
		if err := addParticipantTx(ctx, tx, c.ID, ref); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat: %w", err)
	}
	return nil
}

// Get loads a chat with its participants.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Chat, error) {
	query := `
	SELECT id, is_group, label, created_at
	FROM chats
	WHERE id = $1
	`

	var c Chat
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.IsGroup, &c.Label, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	participants, err := s.listParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Participants = participants

	return &c, nil
}

// AddParticipant appends an actor to the chat with set semantics.
func (s *PostgresStore) AddParticipant(ctx context.Context, id string, ref actors.Ref) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM chats WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check chat: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	query := `
	INSERT INTO chat_participants (chat_id, actor_kind, actor_id, joined_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, id, ref.Kind, ref.ID); err != nil {
		return fmt.Errorf("failed to add chat participant: %w", err)
	}
	return nil
}

// ListForActor returns the chats the actor participates in, newest first.
func (s *PostgresStore) ListForActor(ctx context.Context, ref actors.Ref) ([]*Chat, error) {
	query := `
	SELECT c.id, c.is_group, c.label, c.created_at
	FROM chats c
	JOIN chat_participants cp ON cp.chat_id = c.id
	WHERE cp.actor_kind = $1 AND cp.actor_id = $2
	ORDER BY c.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, ref.Kind, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []*Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.IsGroup, &c.Label, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chats: %w", err)
	}

	for _, c := range chats {
		participants, err := s.listParticipants(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Participants = participants
	}

	return chats, nil
}

func (s *PostgresStore) listParticipants(ctx context.Context, chatID string) ([]actors.Ref, error) {
	query := `
	SELECT actor_kind, actor_id
	FROM chat_participants
	WHERE chat_id = $1
	ORDER BY joined_at, actor_id
	`

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat participants: %w", err)
	}
	defer rows.Close()

	var refs []actors.Ref
	for rows.Next() {
		var ref actors.Ref
		if err := rows.Scan(&ref.Kind, &ref.ID); err != nil {
			return nil, fmt.Errorf("failed to scan chat participant: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat participants: %w", err)
	}
	return refs, nil
}

func addParticipantTx(ctx context.Context, tx *sql.Tx, chatID string, ref actors.Ref) error {
	query := `
	INSERT INTO chat_participants (chat_id, actor_kind, actor_id, joined_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, chatID, ref.Kind, ref.ID); err != nil {
		return fmt.Errorf("failed to add chat participant: %w", err)
	}
	return nil
}
