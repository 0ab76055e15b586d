package chatreq

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wellnest/internal/actors"
)

// PostgresStore stores chat requests in the chat_requests and
// chat_request_participants tables.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a request store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateRequest persists the request and its participant entries.
func (s *PostgresStore) CreateRequest(ctx context.Context, req *ChatRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO chat_requests (
		id, owner_kind, owner_id, mode, group_label,
		affinity_requested, free_text, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	RETURNING created_at, updated_at
	`
	err = tx.QueryRowContext(
		ctx, query,
		req.ID, req.Owner.Kind, req.Owner.ID, req.Mode, req.GroupLabel,
		req.Reason.AffinityRequested, req.Reason.FreeText,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat request: %w", err)
	}

	participantQuery := `
	INSERT INTO chat_request_participants (
		request_id, actor_kind, actor_id, status, affinity_score, position
	) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, p := range req.Participants {
		var score interface{}
		if p.AffinityScore != nil {
			score = *p.AffinityScore
		}
		if _, err := tx.ExecContext(ctx, participantQuery, req.ID, p.Actor.Kind, p.Actor.ID, p.Status, score, i); err != nil {
			return fmt.Errorf("failed to create request participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat request: %w", err)
	}
	return nil
}

// GetRequest loads a request with its participant entries.
func (s *PostgresStore) GetRequest(ctx context.Context, id string) (*ChatRequest, error) {
	query := `
	SELECT id, owner_kind, owner_id, mode, group_label,
	       affinity_requested, free_text, materialized_chat_id,
	       created_at, updated_at
	FROM chat_requests
	WHERE id = $1
	`

	var (
		req              ChatRequest
		materializedChat sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.Owner.Kind, &req.Owner.ID, &req.Mode, &req.GroupLabel,
		&req.Reason.AffinityRequested, &req.Reason.FreeText, &materializedChat,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get chat request: %w", err)
	}
	if materializedChat.Valid {
		req.MaterializedChatID = materializedChat.String
	}

	participants, err := s.listParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Participants = participants

	return &req, nil
}

// SetParticipantStatus flips a single keyed participant entry.
func (s *PostgresStore) SetParticipantStatus(ctx context.Context, requestID string, ref actors.Ref, status ParticipantStatus) error {
	query := `
	UPDATE chat_request_participants
	SET status = $4
	WHERE request_id = $1 AND actor_kind = $2 AND actor_id = $3
	`

	result, err := s.db.ExecContext(ctx, query, requestID, ref.Kind, ref.ID, status)
	if err != nil {
		return fmt.Errorf("failed to set participant status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check participant update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s is not invited to request %s", ErrInvalidState, ref, requestID)
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE chat_requests SET updated_at = NOW() WHERE id = $1", requestID); err != nil {
		return fmt.Errorf("failed to touch chat request: %w", err)
	}
	return nil
}

// SetMaterializedChat points the request at its materialized chat.
func (s *PostgresStore) SetMaterializedChat(ctx context.Context, requestID, chatID string) error {
	query := `
	UPDATE chat_requests
	SET materialized_chat_id = $2, updated_at = NOW()
	WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, requestID, chatID)
	if err != nil {
		return fmt.Errorf("failed to set materialized chat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check materialized chat update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	return nil
}

// ListForOwner returns the requests the actor initiated, newest first.
func (s *PostgresStore) ListForOwner(ctx context.Context, ref actors.Ref) ([]*ChatRequest, error) {
	query := `
	SELECT id FROM chat_requests
	WHERE owner_kind = $1 AND owner_id = $2
	ORDER BY created_at DESC
	`
	return s.listByIDQuery(ctx, query, ref)
}

// ListForInvitee returns the requests the actor was invited to, newest first.
func (s *PostgresStore) ListForInvitee(ctx context.Context, ref actors.Ref) ([]*ChatRequest, error) {
	query := `
	SELECT cr.id FROM chat_requests cr
	JOIN chat_request_participants crp ON crp.request_id = cr.id
	WHERE crp.actor_kind = $1 AND crp.actor_id = $2
	ORDER BY cr.created_at DESC
	`
	return s.listByIDQuery(ctx, query, ref)
}

func (s *PostgresStore) listByIDQuery(ctx context.Context, query string, ref actors.Ref) ([]*ChatRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, ref.Kind, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat requests: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chat request id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat request ids: %w", err)
	}

	requests := make([]*ChatRequest, 0, len(ids))
	for _, id := range ids {
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (s *PostgresStore) listParticipants(ctx context.Context, requestID string) ([]Participant, error) {
	query := `
	SELECT actor_kind, actor_id, status, affinity_score
	FROM chat_request_participants
	WHERE request_id = $1
	ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list request participants: %w", err)
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var (
			p     Participant
			score sql.NullFloat64
		)
		if err := rows.Scan(&p.Actor.Kind, &p.Actor.ID, &p.Status, &score); err != nil {
			return nil, fmt.Errorf("failed to scan request participant: %w", err)
		}
		if score.Valid {
			value := score.Float64
			p.AffinityScore = &value
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read request participants: %w", err)
	}
	return participants, nil
}
