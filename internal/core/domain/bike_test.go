package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBikeSort(t *testing.T) {
	assert.Equal(t, []SortField{{Field: "createdAt", Desc: true}}, ParseBikeSort(""))
	assert.Equal(t, []SortField{{Field: "pricePerDay", Desc: true}, {Field: "rating"}}, ParseBikeSort("-pricePerDay, rating"))
	assert.Equal(t, []SortField{{Field: "name"}}, ParseBikeSort("password,name"))
}
