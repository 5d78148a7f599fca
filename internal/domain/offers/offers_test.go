package offers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBarterSet(t *testing.T) {
	t.Run("accepts a clean set", func(t *testing.T) {
		require.NoError(t, ValidateBarterSet(1, []int64{2, 3, 4}))
	})

	t.Run("rejects an empty set", func(t *testing.T) {
		assert.ErrorIs(t, ValidateBarterSet(1, nil), ErrEmptyBarterSet)
		assert.ErrorIs(t, ValidateBarterSet(1, []int64{}), ErrEmptyBarterSet)
	})

	t.Run("rejects the target inside the set", func(t *testing.T) {
		assert.ErrorIs(t, ValidateBarterSet(3, []int64{2, 3}), ErrTargetInBarterSet)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		assert.ErrorIs(t, ValidateBarterSet(1, []int64{2, 3, 2}), ErrDuplicateBartered)
	})
}

func TestCheckOwnership(t *testing.T) {
	owners := map[int64]int64{
		10: 100, // target, owned by 100
		20: 200,
		21: 200,
	}

	t.Run("valid offer", func(t *testing.T) {
		require.NoError(t, CheckOwnership(owners, 10, []int64{20, 21}, 200))
	})

	t.Run("target item missing", func(t *testing.T) {
		assert.ErrorIs(t, CheckOwnership(owners, 99, []int64{20}, 200), ErrItemNotFound)
	})

	t.Run("bartered item missing", func(t *testing.T) {
		assert.ErrorIs(t, CheckOwnership(owners, 10, []int64{20, 99}, 200), ErrItemNotFound)
	})

	t.Run("requester owns the target", func(t *testing.T) {
		assert.ErrorIs(t, CheckOwnership(owners, 10, []int64{20}, 100), ErrOwnTargetItem)
	})

	t.Run("bartered item owned by someone else", func(t *testing.T) {
		owners := map[int64]int64{10: 100, 20: 200, 30: 300}
		assert.ErrorIs(t, CheckOwnership(owners, 10, []int64{20, 30}, 200), ErrNotItemOwner)
	})
}

func TestStatusDecision(t *testing.T) {
	assert.True(t, StatusAccepted.Decision())
	assert.True(t, StatusDeclined.Decision())
	assert.False(t, StatusPending.Decision())
	assert.False(t, Status("bogus").Decision())
}
