package transactions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	statuses := []Status{StatusPending, StatusCompleted, StatusCancelled, StatusDisputed}

	// The machine is permissive: every valid status reaches every valid
	// status, including itself.
	for _, from := range statuses {
		for _, to := range statuses {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition(StatusPending, Status("shipped")))
	assert.False(t, CanTransition(Status("shipped"), StatusPending))
}

func TestApplyStatusStampsOnce(t *testing.T) {
	tr := &Transaction{Status: StatusPending}

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ApplyStatus(tr, StatusCompleted, first)

	require.NotNil(t, tr.CompletedAt)
	assert.Equal(t, first, *tr.CompletedAt)
	assert.Equal(t, StatusCompleted, tr.Status)

	// Re-completing later must not move the stamp.
	later := first.Add(48 * time.Hour)
	ApplyStatus(tr, StatusCompleted, later)
	assert.Equal(t, first, *tr.CompletedAt)
}

func TestApplyStatusKeepsOtherStamps(t *testing.T) {
	tr := &Transaction{Status: StatusPending}
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ApplyStatus(tr, StatusCompleted, t0)
	ApplyStatus(tr, StatusDisputed, t0.Add(time.Hour))
	ApplyStatus(tr, StatusCancelled, t0.Add(2*time.Hour))

	// Bouncing through several statuses stamps each kind once and never
	// clears an earlier stamp.
	require.NotNil(t, tr.CompletedAt)
	require.NotNil(t, tr.DisputedAt)
	require.NotNil(t, tr.CancelledAt)
	assert.Equal(t, t0, *tr.CompletedAt)
	assert.Equal(t, t0.Add(time.Hour), *tr.DisputedAt)
	assert.Equal(t, StatusCancelled, tr.Status)

	// Back to pending leaves everything in place.
	ApplyStatus(tr, StatusPending, t0.Add(3*time.Hour))
	assert.Equal(t, StatusPending, tr.Status)
	assert.Equal(t, t0, *tr.CompletedAt)
}

func TestSameParties(t *testing.T) {
	assert.True(t, SameParties(1, 2, 1, 2))
	assert.True(t, SameParties(1, 2, 2, 1))
	assert.False(t, SameParties(1, 3, 1, 2))
	assert.False(t, SameParties(1, 1, 1, 2))
}

func TestCounterparty(t *testing.T) {
	tr := &Transaction{InitiatorID: 7, RecipientID: 9}
	assert.Equal(t, int64(9), tr.Counterparty(7))
	assert.Equal(t, int64(7), tr.Counterparty(9))
	assert.Equal(t, int64(0), tr.Counterparty(11))
}

func TestReferenceGenerator(t *testing.T) {
	gen, err := NewReferenceGenerator("test-salt")
	require.NoError(t, err)

	ref, err := gen.Generate(42)
	require.NoError(t, err)
	assert.True(t, len(ref) > 4)
	assert.Equal(t, "BRT-", ref[:4])

	// Same offer id twice still yields distinct codes.
	other, err := gen.Generate(42)
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)
}
