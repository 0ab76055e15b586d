package actors

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresDirectory stores the two actor collections in the members and
// specialists tables, with back-references in link tables.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a directory backed by the given database.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func tableForKind(kind Kind) (string, error) {
	switch kind {
	case KindMember:
		return "members", nil
	case KindSpecialist:
		return "specialists", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Resolve looks up an actor in the collection named by its kind.
func (d *PostgresDirectory) Resolve(ctx context.Context, ref Ref) (*Actor, error) {
	table, err := tableForKind(ref.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
	SELECT id, display_name, created_at
	FROM %s
	WHERE id = $1
	`, table)

	actor := Actor{Ref: ref}
	err = d.db.QueryRowContext(ctx, query, ref.ID).Scan(
		&actor.ID, &actor.DisplayName, &actor.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to resolve actor %s: %w", ref, err)
	}

	return &actor, nil
}

// AppendChat appends a chat id to the actor's chats list with set semantics.
func (d *PostgresDirectory) AppendChat(ctx context.Context, ref Ref, chatID string) error {
	return d.appendRef(ctx, ref, "actor_chats", "chat_id", chatID)
}

// AppendSentRequest appends a request id to the actor's sent-requests list.
func (d *PostgresDirectory) AppendSentRequest(ctx context.Context, ref Ref, requestID string) error {
	return d.appendRef(ctx, ref, "actor_sent_requests", "request_id", requestID)
}

// AppendReceivedRequest appends a request id to the actor's received-requests list.
func (d *PostgresDirectory) AppendReceivedRequest(ctx context.Context, ref Ref, requestID string) error {
	return d.appendRef(ctx, ref, "actor_received_requests", "request_id", requestID)
}

func (d *PostgresDirectory) appendRef(ctx context.Context, ref Ref, table, column, value string) error {
	if _, err := tableForKind(ref.Kind); err != nil {
		return err
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (actor_kind, actor_id, %s)
	VALUES ($1, $2, $3)
	ON CONFLICT DO NOTHING
	`, table, column)

	if _, err := d.db.ExecContext(ctx, query, ref.Kind, ref.ID, value); err != nil {
		return fmt.Errorf("failed to append %s for %s: %w", column, ref, err)
	}
	return nil
}
