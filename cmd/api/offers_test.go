package main

import (
	"fmt"
	"net/http"
	"testing"

	"barterly/internal/domain/offers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOffer(t *testing.T) {
	env := newTestEnv(t)
	env.offers.addItem(10, 1, "Record player")
	env.offers.addItem(20, 2, "Mountain bike")
	env.offers.addItem(21, 2, "Camping tent")

	t.Run("owner cannot offer on their own item", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/offers", map[string]any{
			"item_id":           10,
			"bartered_item_ids": []int64{20},
		}, 1)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("bartered items must belong to the sender", func(t *testing.T) {
		env.offers.addItem(30, 3, "Guitar")
		rr := env.do(t, http.MethodPost, "/v1/offers", map[string]any{
			"item_id":           10,
			"bartered_item_ids": []int64{30},
		}, 2)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown item is a validation error", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/offers", map[string]any{
			"item_id":           999,
			"bartered_item_ids": []int64{20},
		}, 2)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("target inside the bartered set is rejected", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/offers", map[string]any{
			"item_id":           10,
			"bartered_item_ids": []int64{10, 20},
		}, 2)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("echoes the exact bartered set", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/v1/offers", map[string]any{
			"item_id":           10,
			"bartered_item_ids": []int64{20, 21},
			"message_text":      "two for one?",
		}, 2)
		require.Equal(t, http.StatusCreated, rr.Code)

		var offer offers.Offer
		decodeData(t, rr, &offer)

		assert.Equal(t, int64(10), offer.ItemID)
		assert.Equal(t, int64(2), offer.OfferedBy)
		assert.Equal(t, offers.StatusPending, offer.Status)

		got := map[int64]bool{}
		for _, item := range offer.BarteredItems {
			got[item.ID] = true
		}
		assert.Equal(t, map[int64]bool{20: true, 21: true}, got)
	})
}

func TestRespondToOffer(t *testing.T) {
	env := newTestEnv(t)
	env.offers.addItem(10, 1, "Record player")
	env.offers.addItem(20, 2, "Mountain bike")

	rr := env.do(t, http.MethodPost, "/v1/offers", map[string]any{
		"item_id":           10,
		"bartered_item_ids": []int64{20},
	}, 2)
	require.Equal(t, http.StatusCreated, rr.Code)

	var offer offers.Offer
	decodeData(t, rr, &offer)
	path := fmt.Sprintf("/v1/offers/%d/respond", offer.ID)

	t.Run("stranger cannot respond", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, path, map[string]any{"status": "accepted"}, 3)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("sender cannot respond to their own offer", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, path, map[string]any{"status": "accepted"}, 2)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("only accepted or declined are valid answers", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, path, map[string]any{"status": "pending"}, 1)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("owner accepts", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, path, map[string]any{"status": "accepted"}, 1)
		require.Equal(t, http.StatusOK, rr.Code)

		var updated offers.Offer
		decodeData(t, rr, &updated)
		assert.Equal(t, offers.StatusAccepted, updated.Status)
	})

	t.Run("owner may overwrite the answer", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, path, map[string]any{"status": "declined"}, 1)
		require.Equal(t, http.StatusOK, rr.Code)

		stored, err := env.offers.GetByID(t.Context(), offer.ID)
		require.NoError(t, err)
		assert.Equal(t, offers.StatusDeclined, stored.Status)
	})
}

func TestDeleteOfferDetachesBarteredItems(t *testing.T) {
	env := newTestEnv(t)
	env.offers.addItem(10, 1, "Record player")
	env.offers.addItem(20, 2, "Mountain bike")
	env.offers.addItem(21, 2, "Camping tent")

	rr := env.do(t, http.MethodPost, "/v1/offers", map[string]any{
		"item_id":           10,
		"bartered_item_ids": []int64{20, 21},
	}, 2)
	require.Equal(t, http.StatusCreated, rr.Code)

	var offer offers.Offer
	decodeData(t, rr, &offer)

	t.Run("only the sender can withdraw", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, fmt.Sprintf("/v1/offers/%d", offer.ID), nil, 1)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("withdrawal removes the join rows", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, fmt.Sprintf("/v1/offers/%d", offer.ID), nil, 2)
		require.Equal(t, http.StatusOK, rr.Code)

		env.offers.mu.Lock()
		_, hasJoins := env.offers.joins[offer.ID]
		env.offers.mu.Unlock()
		assert.False(t, hasJoins)

		_, err := env.offers.GetByID(t.Context(), offer.ID)
		assert.ErrorIs(t, err, offers.ErrNotFound)
	})
}
