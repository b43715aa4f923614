package ports

import (
	"context"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
)

type ReviewRepository interface {
	// CreateReview fails with domain.ErrDuplicateReview when the booking already has a review.
	CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error)
	GetReviewByID(ctx context.Context, reviewID uuid.UUID) (*domain.Review, error)
	GetReviewByBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error)
	ListReviews(ctx context.Context, page domain.Page) ([]*domain.Review, int64, error)
	GetReviewsByBike(ctx context.Context, bikeID uuid.UUID) ([]*domain.Review, error)
	GetRatingsByBike(ctx context.Context, bikeID uuid.UUID) ([]int, error)
	UpdateReview(ctx context.Context, review *domain.Review) (*domain.Review, error)
	// AddHelpful returns false when the user had already marked the review.
	AddHelpful(ctx context.Context, reviewID, userID uuid.UUID) (bool, error)
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error
	DeleteReviewsByBike(ctx context.Context, bikeID uuid.UUID) (int64, error)
	CountReviewsByRating(ctx context.Context) (map[int]int64, error)
}
