package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p := ParsePagination(url.Values{})
		assert.Equal(t, 20, p.Limit)
		assert.Equal(t, 1, p.Page)
		assert.Equal(t, 0, p.Offset)
	})

	t.Run("explicit values", func(t *testing.T) {
		p := ParsePagination(url.Values{"limit": {"10"}, "page": {"3"}})
		assert.Equal(t, 10, p.Limit)
		assert.Equal(t, 3, p.Page)
		assert.Equal(t, 20, p.Offset)
	})

	t.Run("caps and garbage", func(t *testing.T) {
		p := ParsePagination(url.Values{"limit": {"500"}, "page": {"-2"}})
		assert.Equal(t, 50, p.Limit)
		assert.Equal(t, 1, p.Page)

		p = ParsePagination(url.Values{"limit": {"abc"}, "page": {"xyz"}})
		assert.Equal(t, 20, p.Limit)
		assert.Equal(t, 1, p.Page)
	})
}

func TestComputeMeta(t *testing.T) {
	p := ParsePagination(url.Values{"limit": {"10"}, "page": {"2"}})
	p.ComputeMeta(35)

	assert.Equal(t, 35, p.Total)
	assert.Equal(t, 4, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p.Page = 4
	p.ComputeMeta(35)
	assert.False(t, p.HasNext)
}
