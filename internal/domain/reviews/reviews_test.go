package reviews

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferReviewee(t *testing.T) {
	t.Run("initiator reviews recipient", func(t *testing.T) {
		reviewee, err := InferReviewee(1, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), reviewee)
	})

	t.Run("recipient reviews initiator", func(t *testing.T) {
		reviewee, err := InferReviewee(1, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), reviewee)
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		_, err := InferReviewee(1, 2, 3)
		assert.ErrorIs(t, err, ErrNotParticipant)
	})
}
