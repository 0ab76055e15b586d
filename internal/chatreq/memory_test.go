package chatreq

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	score := 84.2
	req := &ChatRequest{
		ID:         "r-1",
		Owner:      owner,
		Mode:       ModeGroup,
		GroupLabel: "Wellness Circle",
		Participants: []Participant{
			{Actor: alice, Status: StatusPending, AffinityScore: &score},
			{Actor: bob, Status: StatusPending},
		},
		Reason: Reason{AffinityRequested: true, FreeText: "hi"},
	}
	require.NoError(t, s.CreateRequest(ctx, req))

	got, err := s.GetRequest(ctx, "r-1")
	require.NoError(t, err)

	if diff := cmp.Diff(req, got, cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Errorf("request round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateRequest(ctx, &ChatRequest{
		ID:           "r-1",
		Owner:        owner,
		Mode:         ModePrivate,
		Participants: []Participant{{Actor: alice, Status: StatusPending}},
	}))

	got, err := s.GetRequest(ctx, "r-1")
	require.NoError(t, err)
	got.Participants[0].Status = StatusAccepted

	again, err := s.GetRequest(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Participants[0].Status,
		"mutating a fetched request must not leak into the store")
}

func TestMemoryStoreStatusAndMaterialization(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateRequest(ctx, &ChatRequest{
		ID:           "r-1",
		Owner:        owner,
		Mode:         ModePrivate,
		Participants: []Participant{{Actor: alice, Status: StatusPending}},
	}))

	t.Run("keyed status update", func(t *testing.T) {
		require.NoError(t, s.SetParticipantStatus(ctx, "r-1", alice, StatusAccepted))

		got, err := s.GetRequest(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, got.Participants[0].Status)
	})

	t.Run("status update for stranger", func(t *testing.T) {
		err := s.SetParticipantStatus(ctx, "r-1", carol, StatusAccepted)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("status update for unknown request", func(t *testing.T) {
		err := s.SetParticipantStatus(ctx, "nope", alice, StatusAccepted)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("materialized chat pointer", func(t *testing.T) {
		require.NoError(t, s.SetMaterializedChat(ctx, "r-1", "c-1"))

		got, err := s.GetRequest(ctx, "r-1")
		require.NoError(t, err)
		assert.Equal(t, "c-1", got.MaterializedChatID)

		assert.ErrorIs(t, s.SetMaterializedChat(ctx, "nope", "c-1"), ErrNotFound)
	})
}
