package main

import (
	"fmt"
	"net/http"
	"testing"

	"barterly/internal/domain/transactions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	env := newTestEnv(t)
	env.transactions.parties[5] = [2]int64{2, 1} // offered by 2, item owned by 1

	t.Run("unknown offer is a validation error", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/transactions", map[string]any{
			"offer_id":     99,
			"initiator_id": 1,
			"recipient_id": 2,
		}, 1)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("parties must equal the offer parties as a set", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/transactions", map[string]any{
			"offer_id":     5,
			"initiator_id": 1,
			"recipient_id": 3,
		}, 1)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("outsider cannot create even with the right parties", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/transactions", map[string]any{
			"offer_id":     5,
			"initiator_id": 1,
			"recipient_id": 2,
		}, 3)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("reversed column order is accepted", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/transactions", map[string]any{
			"offer_id":     5,
			"initiator_id": 1,
			"recipient_id": 2,
		}, 1)
		require.Equal(t, http.StatusCreated, rr.Code)

		var tr transactions.Transaction
		decodeData(t, rr, &tr)
		assert.Equal(t, transactions.StatusPending, tr.Status)
		assert.Contains(t, tr.Reference, "BRT-")

		rr = env.do(t, http.MethodPost, "/v1/transactions", map[string]any{
			"offer_id":     5,
			"initiator_id": 2,
			"recipient_id": 1,
		}, 2)
		assert.Equal(t, http.StatusCreated, rr.Code)
	})
}

func TestUpdateTransactionStatus(t *testing.T) {
	env := newTestEnv(t)
	env.transactions.parties[5] = [2]int64{2, 1}

	rr := env.do(t, http.MethodPost, "/v1/transactions", map[string]any{
		"offer_id":     5,
		"initiator_id": 1,
		"recipient_id": 2,
	}, 1)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created transactions.Transaction
	decodeData(t, rr, &created)
	path := fmt.Sprintf("/v1/transactions/%d/status", created.ID)

	t.Run("invalid status is rejected", func(t *testing.T) {
		rr := env.do(t, http.MethodPatch, path, map[string]any{"status": "shipped"}, 1)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("outsider cannot update", func(t *testing.T) {
		rr := env.do(t, http.MethodPatch, path, map[string]any{"status": "completed"}, 3)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("completed_at is stamped exactly once", func(t *testing.T) {
		rr := env.do(t, http.MethodPatch, path, map[string]any{"status": "completed"}, 1)
		require.Equal(t, http.StatusOK, rr.Code)

		var first transactions.Transaction
		decodeData(t, rr, &first)
		require.NotNil(t, first.CompletedAt)

		// The counterparty re-completes; the stamp must not move.
		rr = env.do(t, http.MethodPatch, path, map[string]any{"status": "completed"}, 2)
		require.Equal(t, http.StatusOK, rr.Code)

		var second transactions.Transaction
		decodeData(t, rr, &second)
		require.NotNil(t, second.CompletedAt)
		assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))
	})

	t.Run("later statuses keep earlier stamps", func(t *testing.T) {
		rr := env.do(t, http.MethodPatch, path, map[string]any{"status": "disputed"}, 2)
		require.Equal(t, http.StatusOK, rr.Code)

		var tr transactions.Transaction
		decodeData(t, rr, &tr)
		assert.Equal(t, transactions.StatusDisputed, tr.Status)
		assert.NotNil(t, tr.CompletedAt)
		assert.NotNil(t, tr.DisputedAt)
	})
}

func TestTransactionVisibility(t *testing.T) {
	env := newTestEnv(t)
	env.transactions.parties[5] = [2]int64{2, 1}

	rr := env.do(t, http.MethodPost, "/v1/transactions", map[string]any{
		"offer_id":     5,
		"initiator_id": 1,
		"recipient_id": 2,
	}, 1)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created transactions.Transaction
	decodeData(t, rr, &created)
	path := fmt.Sprintf("/v1/transactions/%d", created.ID)

	t.Run("participant can fetch", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, path, nil, 2)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, path, nil, 3)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("participant can delete", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, path, nil, 1)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = env.do(t, http.MethodGet, path, nil, 1)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
