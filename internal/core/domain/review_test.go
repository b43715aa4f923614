package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRating(t *testing.T) {
	tests := []struct {
		name      string
		ratings   []int
		wantAvg   float64
		wantCount int
	}{
		{"no reviews", nil, 0, 0},
		{"single", []int{4}, 4, 1},
		{"rounds to one decimal", []int{5, 4, 4}, 4.3, 3},
		{"half rounds up", []int{4, 5, 4, 4}, 4.3, 4},
		{"low", []int{1, 2}, 1.5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, count := ComputeRating(tt.ratings)
			assert.Equal(t, tt.wantAvg, avg)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestComputeRatingOrderIndependent(t *testing.T) {
	a, n := ComputeRating([]int{1, 5, 3, 4})
	b, m := ComputeRating([]int{4, 3, 5, 1})
	assert.Equal(t, a, b)
	assert.Equal(t, n, m)
}

func TestNewReviewStats(t *testing.T) {
	stats := NewReviewStats(map[int]int64{5: 2, 3: 1})

	assert.Equal(t, int64(3), stats.TotalReviews)
	assert.Equal(t, 4.3, stats.AverageRating)
	assert.Equal(t, int64(0), stats.RatingDistribution[1])
	assert.Equal(t, int64(2), stats.RatingDistribution[5])

	empty := NewReviewStats(nil)
	assert.Equal(t, int64(0), empty.TotalReviews)
	assert.Equal(t, float64(0), empty.AverageRating)
	assert.Len(t, empty.RatingDistribution, 5)
}
