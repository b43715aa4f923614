package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	p := NewPage(2, 10)
	got := p.Paginate(25)

	assert.Equal(t, int64(10), p.Offset())
	assert.Equal(t, 3, got.TotalPages)
	assert.True(t, got.HasNext)
	assert.True(t, got.HasPrev)

	assert.Equal(t, Page{Page: 1, Limit: DefaultLimit}, NewPage(0, 0))
	assert.Equal(t, MaxLimit, NewPage(1, 1000).Limit)
}

func TestNewPage_HugePage(t *testing.T) {
	p := NewPage(400000000000000001, MaxLimit)

	assert.Equal(t, MaxPage, p.Page)
	assert.Positive(t, p.Offset())

	got := p.Paginate(50)
	assert.False(t, got.HasNext)
	assert.True(t, got.HasPrev)
	assert.Equal(t, 1, got.TotalPages)
}
