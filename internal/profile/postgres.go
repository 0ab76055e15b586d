package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wellnest/internal/actors"
)

// PostgresStore reads health profiles from the health_profiles table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a profile store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get returns the actor's profile, or (nil, nil) when none exists.
func (s *PostgresStore) Get(ctx context.Context, ref actors.Ref) (*Profile, error) {
	query := `
	SELECT attributes
	FROM health_profiles
	WHERE actor_kind = $1 AND actor_id = $2
	`

	var raw []byte
	err := s.db.QueryRowContext(ctx, query, ref.Kind, ref.ID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile for %s: %w", ref, err)
	}

	attrs := make(map[string]string)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return nil, fmt.Errorf("failed to decode profile attributes for %s: %w", ref, err)
		}
	}

	return &Profile{Actor: ref, Attributes: attrs}, nil
}
