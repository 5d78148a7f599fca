package main

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"barterly/internal/domain/offers"
	"barterly/internal/domain/reviews"
	"barterly/internal/domain/transactions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTransaction(t *testing.T, env *testEnv, initiatorID, recipientID int64) *transactions.Transaction {
	t.Helper()

	tr := &transactions.Transaction{
		Reference:   "BRT-TEST",
		OfferID:     1,
		InitiatorID: initiatorID,
		RecipientID: recipientID,
		Status:      transactions.StatusCompleted,
	}
	require.NoError(t, env.transactions.Create(t.Context(), tr))
	return tr
}

func TestCreateReview(t *testing.T) {
	env := newTestEnv(t)
	tr := seedTransaction(t, env, 1, 2)

	t.Run("outsider is forbidden", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
			"transaction_id": tr.ID,
			"rating":         5,
		}, 3)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("reviewee is inferred as the other participant", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
			"transaction_id": tr.ID,
			"rating":         5,
			"comment":        "smooth trade",
		}, 1)
		require.Equal(t, http.StatusCreated, rr.Code)

		var review reviews.Review
		decodeData(t, rr, &review)
		assert.Equal(t, int64(1), review.ReviewerID)
		assert.Equal(t, int64(2), review.RevieweeID)
	})

	t.Run("second review for the same transaction conflicts", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
			"transaction_id": tr.ID,
			"rating":         1,
		}, 1)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("the other participant may still review", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
			"transaction_id": tr.ID,
			"rating":         4,
		}, 2)
		require.Equal(t, http.StatusCreated, rr.Code)

		var review reviews.Review
		decodeData(t, rr, &review)
		assert.Equal(t, int64(1), review.RevieweeID)
	})

	t.Run("unresolvable transaction is a validation error", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
			"transaction_id": 999,
			"rating":         5,
		}, 1)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rating is bounded", func(t *testing.T) {
		other := seedTransaction(t, env, 1, 2)
		rr := env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
			"transaction_id": other.ID,
			"rating":         6,
		}, 1)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestConcurrentDuplicateReviews(t *testing.T) {
	env := newTestEnv(t)
	tr := seedTransaction(t, env, 1, 2)

	const attempts = 8
	codes := make(chan int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr := env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
				"transaction_id": tr.ID,
				"rating":         5,
			}, 1)
			codes <- rr.Code
		}()
	}
	wg.Wait()
	close(codes)

	created, conflicted := 0, 0
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		}
	}
	assert.Equal(t, 1, created, "exactly one attempt may win")
	assert.Equal(t, attempts-1, conflicted)
}

// TestFullBarterFlow walks the whole happy path: offer, acceptance,
// transaction, completion, and a review from each side.
func TestFullBarterFlow(t *testing.T) {
	env := newTestEnv(t)
	env.offers.addItem(10, 1, "Record player")
	env.offers.addItem(20, 2, "Mountain bike")
	env.offers.addItem(21, 2, "Camping tent")

	// User 2 offers two items for user 1's record player.
	rr := env.do(t, http.MethodPost, "/v1/offers", map[string]any{
		"item_id":           10,
		"bartered_item_ids": []int64{20, 21},
	}, 2)
	require.Equal(t, http.StatusCreated, rr.Code)
	var offer offers.Offer
	decodeData(t, rr, &offer)
	require.Len(t, offer.BarteredItems, 2)

	// User 1 accepts.
	rr = env.do(t, http.MethodPost, fmt.Sprintf("/v1/offers/%d/respond", offer.ID),
		map[string]any{"status": "accepted"}, 1)
	require.Equal(t, http.StatusOK, rr.Code)

	// A transaction is recorded against the offer.
	env.transactions.parties[offer.ID] = [2]int64{2, 1}
	rr = env.do(t, http.MethodPost, "/v1/transactions", map[string]any{
		"offer_id":     offer.ID,
		"initiator_id": 2,
		"recipient_id": 1,
	}, 2)
	require.Equal(t, http.StatusCreated, rr.Code)
	var tr transactions.Transaction
	decodeData(t, rr, &tr)

	// Both sides complete it; one stamp.
	statusPath := fmt.Sprintf("/v1/transactions/%d/status", tr.ID)
	rr = env.do(t, http.MethodPatch, statusPath, map[string]any{"status": "completed"}, 1)
	require.Equal(t, http.StatusOK, rr.Code)
	var first transactions.Transaction
	decodeData(t, rr, &first)

	rr = env.do(t, http.MethodPatch, statusPath, map[string]any{"status": "completed"}, 2)
	require.Equal(t, http.StatusOK, rr.Code)
	var second transactions.Transaction
	decodeData(t, rr, &second)
	require.NotNil(t, first.CompletedAt)
	require.NotNil(t, second.CompletedAt)
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))

	// Each participant reviews the other exactly once.
	rr = env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
		"transaction_id": tr.ID,
		"rating":         5,
	}, 2)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
		"transaction_id": tr.ID,
		"rating":         4,
	}, 1)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/reviews", map[string]any{
		"transaction_id": tr.ID,
		"rating":         2,
	}, 1)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

