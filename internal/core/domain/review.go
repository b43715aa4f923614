package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user"`
	BikeID    uuid.UUID   `json:"bike"`
	BookingID uuid.UUID   `json:"booking"`
	Rating    int         `json:"rating" validate:"required,min=1,max=5"`
	Title     string      `json:"title" validate:"required,max=100"`
	Comment   string      `json:"comment" validate:"required,max=500"`
	Images    []string    `json:"images"`
	Helpful   []uuid.UUID `json:"helpful"`
	Verified  bool        `json:"verified"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (r *Review) MarkedHelpfulBy(userID uuid.UUID) bool {
	for _, id := range r.Helpful {
		if id == userID {
			return true
		}
	}
	return false
}

type ReviewRequest struct {
	BookingID uuid.UUID `validate:"required"`
	Rating    int       `validate:"required,min=1,max=5"`
	Title     string    `validate:"required,max=100"`
	Comment   string    `validate:"required,max=500"`
	Images    []string
}

type ReviewUpdate struct {
	Rating  *int    `validate:"omitempty,min=1,max=5"`
	Title   *string `validate:"omitempty,max=100"`
	Comment *string `validate:"omitempty,max=500"`
	Images  []string
}

type ReviewStats struct {
	TotalReviews       int64         `json:"totalReviews"`
	AverageRating      float64       `json:"averageRating"`
	RatingDistribution map[int]int64 `json:"ratingDistribution"`
}

// ComputeRating derives a bike's rating and review count from the full set of review ratings.
// The mean is rounded to one decimal; no ratings yields 0, 0.
func ComputeRating(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10, len(ratings)
}

// NewReviewStats fills totals and the average from a rating -> count distribution.
func NewReviewStats(distribution map[int]int64) *ReviewStats {
	stats := &ReviewStats{RatingDistribution: make(map[int]int64, 5)}
	var sum int64
	for rating := 1; rating <= 5; rating++ {
		n := distribution[rating]
		stats.RatingDistribution[rating] = n
		stats.TotalReviews += n
		sum += int64(rating) * n
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = math.Round(float64(sum)/float64(stats.TotalReviews)*10) / 10
	}
	return stats
}
