package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageClamp(t *testing.T) {
	// Zero value falls back to the default page size
	page := Page{}.Clamp()
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.Equal(t, 0, page.Offset)

	// Oversized limits are capped
	page = Page{Limit: 10000, Offset: 40}.Clamp()
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Equal(t, 40, page.Offset)

	// Negative values normalize
	page = Page{Limit: -5, Offset: -10}.Clamp()
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.Equal(t, 0, page.Offset)

	// In-range values pass through
	page = Page{Limit: 50, Offset: 100}.Clamp()
	assert.Equal(t, 50, page.Limit)
	assert.Equal(t, 100, page.Offset)
}
