package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/google/uuid"
)

// AggregateService owns the derived fields: bike rating/reviewCount and category bikeCount.
// Every refresh recomputes from the current children, so repeated or reordered calls converge.
type AggregateService struct {
	bikeRepo     ports.BikeRepository
	reviewRepo   ports.ReviewRepository
	categoryRepo ports.CategoryRepository
	cache        ports.CachePort
	logger       ports.LoggerPort
}

func NewAggregateService(
	bikeRepo ports.BikeRepository,
	reviewRepo ports.ReviewRepository,
	categoryRepo ports.CategoryRepository,
	cache ports.CachePort,
	logger ports.LoggerPort,
) *AggregateService {
	return &AggregateService{
		bikeRepo:     bikeRepo,
		reviewRepo:   reviewRepo,
		categoryRepo: categoryRepo,
		cache:        cache,
		logger:       logger,
	}
}

func (s *AggregateService) RefreshBikeRating(ctx context.Context, bikeID uuid.UUID) error {
	ratings, err := s.reviewRepo.GetRatingsByBike(ctx, bikeID)
	if err != nil {
		return fmt.Errorf("load ratings of bike %s: %w", bikeID, err)
	}

	rating, count := domain.ComputeRating(ratings)
	if err := s.bikeRepo.SetRatingStats(ctx, bikeID, rating, count); err != nil {
		return fmt.Errorf("store rating of bike %s: %w", bikeID, err)
	}

	if err := s.cache.Delete(bikeCacheKey(bikeID)); err != nil {
		s.logger.Warn("Failed to invalidate bike cache", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID.String(),
		})
	}

	s.logger.Debug("Bike rating refreshed", map[string]interface{}{
		"bike_id":      bikeID.String(),
		"rating":       rating,
		"review_count": count,
	})
	return nil
}

// RefreshCategoryCount is a no-op for categories that no longer exist.
func (s *AggregateService) RefreshCategoryCount(ctx context.Context, categoryID uuid.UUID) error {
	count, err := s.bikeRepo.CountBikesByCategory(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("count bikes of category %s: %w", categoryID, err)
	}

	if err := s.categoryRepo.SetBikeCount(ctx, categoryID, count); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Category vanished before its bike count was refreshed", map[string]interface{}{
				"category_id": categoryID.String(),
			})
			return nil
		}
		return fmt.Errorf("store bike count of category %s: %w", categoryID, err)
	}

	s.logger.Debug("Category bike count refreshed", map[string]interface{}{
		"category_id": categoryID.String(),
		"bike_count":  count,
	})
	return nil
}
