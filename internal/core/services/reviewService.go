package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReviewService struct {
	reviewRepo  ports.ReviewRepository
	bookingRepo ports.BookingRepository
	aggregates  *AggregateService
	logger      ports.LoggerPort
	validate    *validator.Validate
}

func NewReviewService(
	reviewRepo ports.ReviewRepository,
	bookingRepo ports.BookingRepository,
	aggregates *AggregateService,
	logger ports.LoggerPort,
	validate *validator.Validate,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		bookingRepo: bookingRepo,
		aggregates:  aggregates,
		logger:      logger,
		validate:    validate,
	}
}

// CreateReview accepts one review per completed booking, written by the booking's owner.
func (s *ReviewService) CreateReview(ctx context.Context, actor *domain.TokenPayload, req domain.ReviewRequest) (*domain.Review, error) {
	if err := validateStruct(s.validate, s.logger, "Review request", req); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetBookingByID(ctx, req.BookingID)
	if err != nil {
		s.logger.Error("Failed to get booking for review", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": req.BookingID,
		})
		return nil, err
	}

	if actor == nil || booking.UserID != actor.UserID {
		s.logger.Warn("Review attempt on someone else's booking", map[string]interface{}{
			"booking_id": booking.ID,
			"owner_id":   booking.UserID,
		})
		return nil, fmt.Errorf("review booking %s: %w", booking.ID, domain.ErrForbidden)
	}

	if booking.Status != domain.BookingCompleted {
		return nil, fmt.Errorf("booking %s is %s, only completed bookings can be reviewed: %w",
			booking.ID, booking.Status, domain.ErrIllegalTransition)
	}

	existing, err := s.reviewRepo.GetReviewByBooking(ctx, booking.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("booking %s: %w", booking.ID, domain.ErrDuplicateReview)
	}

	review := &domain.Review{
		ID:        uuid.New(),
		UserID:    actor.UserID,
		BikeID:    booking.BikeID,
		BookingID: booking.ID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		Images:    req.Images,
		Helpful:   []uuid.UUID{},
		Verified:  true,
	}

	createdReview, err := s.reviewRepo.CreateReview(ctx, review)
	if err != nil {
		s.logger.Error("Failed to create review", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": booking.ID,
		})
		return nil, err
	}

	s.refreshRating(ctx, createdReview.BikeID)

	s.logger.Info("Review created successfully", map[string]interface{}{
		"review_id": createdReview.ID,
		"bike_id":   createdReview.BikeID,
		"rating":    createdReview.Rating,
	})

	return createdReview, nil
}

func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*domain.Review, error) {
	reviewUUID, err := parseID(s.logger, "review", reviewID)
	if err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetReviewByID(ctx, reviewUUID)
	if err != nil {
		s.logger.Error("Failed to get review", map[string]interface{}{
			"error":     err.Error(),
			"review_id": reviewID,
		})
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ListReviews(ctx context.Context, page domain.Page) ([]*domain.Review, domain.Pagination, error) {
	reviews, total, err := s.reviewRepo.ListReviews(ctx, page)
	if err != nil {
		s.logger.Error("Failed to list reviews", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, domain.Pagination{}, err
	}
	return reviews, page.Paginate(total), nil
}

func (s *ReviewService) GetBikeReviews(ctx context.Context, bikeID string) ([]*domain.Review, error) {
	bikeUUID, err := parseID(s.logger, "bike", bikeID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.GetReviewsByBike(ctx, bikeUUID)
	if err != nil {
		s.logger.Error("Failed to get bike reviews", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}
	return reviews, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, actor *domain.TokenPayload, reviewID string, update domain.ReviewUpdate) (*domain.Review, error) {
	if err := validateStruct(s.validate, s.logger, "Review update", update); err != nil {
		return nil, err
	}

	review, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if actor == nil || review.UserID != actor.UserID {
		return nil, fmt.Errorf("update review %s: %w", review.ID, domain.ErrForbidden)
	}

	ratingChanged := false
	if update.Rating != nil && *update.Rating != review.Rating {
		review.Rating = *update.Rating
		ratingChanged = true
	}
	if update.Title != nil {
		review.Title = *update.Title
	}
	if update.Comment != nil {
		review.Comment = *update.Comment
	}
	if update.Images != nil {
		review.Images = update.Images
	}

	if err := validateStruct(s.validate, s.logger, "Review", review); err != nil {
		return nil, err
	}

	updatedReview, err := s.reviewRepo.UpdateReview(ctx, review)
	if err != nil {
		s.logger.Error("Failed to update review", map[string]interface{}{
			"error":     err.Error(),
			"review_id": reviewID,
		})
		return nil, err
	}

	if ratingChanged {
		s.refreshRating(ctx, updatedReview.BikeID)
	}

	return updatedReview, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, actor *domain.TokenPayload, reviewID string) error {
	review, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}

	if !actor.CanAccess(review.UserID) {
		return fmt.Errorf("delete review %s: %w", review.ID, domain.ErrForbidden)
	}

	if err := s.reviewRepo.DeleteReview(ctx, review.ID); err != nil {
		s.logger.Error("Failed to delete review", map[string]interface{}{
			"error":     err.Error(),
			"review_id": reviewID,
		})
		return err
	}

	s.refreshRating(ctx, review.BikeID)

	s.logger.Info("Review deleted successfully", map[string]interface{}{
		"review_id": reviewID,
		"bike_id":   review.BikeID,
	})
	return nil
}

// MarkHelpful records the caller's vote once; a repeated vote is a conflict.
func (s *ReviewService) MarkHelpful(ctx context.Context, actor *domain.TokenPayload, reviewID string) (*domain.Review, error) {
	reviewUUID, err := parseID(s.logger, "review", reviewID)
	if err != nil {
		return nil, err
	}

	added, err := s.reviewRepo.AddHelpful(ctx, reviewUUID, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to mark review helpful", map[string]interface{}{
			"error":     err.Error(),
			"review_id": reviewID,
		})
		return nil, err
	}
	if !added {
		return nil, fmt.Errorf("review %s already marked helpful by %s: %w", reviewID, actor.UserID, domain.ErrConflict)
	}

	return s.reviewRepo.GetReviewByID(ctx, reviewUUID)
}

func (s *ReviewService) GetReviewStats(ctx context.Context) (*domain.ReviewStats, error) {
	distribution, err := s.reviewRepo.CountReviewsByRating(ctx)
	if err != nil {
		s.logger.Error("Failed to get review stats", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return domain.NewReviewStats(distribution), nil
}

func (s *ReviewService) refreshRating(ctx context.Context, bikeID uuid.UUID) {
	if err := s.aggregates.RefreshBikeRating(ctx, bikeID); err != nil {
		s.logger.Error("Failed to refresh bike rating", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
	}
}
