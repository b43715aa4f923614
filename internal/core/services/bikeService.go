package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	bikeCacheTTL     = 15 * time.Minute
	searchResultSize = 20
)

type BikeService struct {
	bikeRepo     ports.BikeRepository
	bookingRepo  ports.BookingRepository
	reviewRepo   ports.ReviewRepository
	categoryRepo ports.CategoryRepository
	userRepo     ports.UserRepository
	aggregates   *AggregateService
	logger       ports.LoggerPort
	validate     *validator.Validate
	cache        ports.CachePort
}

func NewBikeService(
	bikeRepo ports.BikeRepository,
	bookingRepo ports.BookingRepository,
	reviewRepo ports.ReviewRepository,
	categoryRepo ports.CategoryRepository,
	userRepo ports.UserRepository,
	aggregates *AggregateService,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
) *BikeService {
	return &BikeService{
		bikeRepo:     bikeRepo,
		bookingRepo:  bookingRepo,
		reviewRepo:   reviewRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		aggregates:   aggregates,
		logger:       logger,
		validate:     validate,
		cache:        cache,
	}
}

func (s *BikeService) CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	if bike.Condition == "" {
		bike.Condition = domain.Good
	}
	if err := s.validateBike(bike); err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.GetCategoryByID(ctx, bike.CategoryID); err != nil {
		s.logger.Error("Failed to get bike category", map[string]interface{}{
			"error":       err.Error(),
			"category_id": bike.CategoryID,
		})
		return nil, err
	}

	if bike.ID == uuid.Nil {
		bike.ID = uuid.New()
	}
	bike.Rating = 0
	bike.ReviewCount = 0

	createdBike, err := s.bikeRepo.CreateBike(ctx, bike)
	if err != nil {
		s.logger.Error("Failed to create bike", map[string]interface{}{
			"error":      err.Error(),
			"created_by": bike.CreatedBy,
		})
		return nil, err
	}

	if err := s.aggregates.RefreshCategoryCount(ctx, createdBike.CategoryID); err != nil {
		s.logger.Error("Failed to refresh category bike count", map[string]interface{}{
			"error":       err.Error(),
			"category_id": createdBike.CategoryID,
		})
	}

	s.logger.Info("Bike created successfully", map[string]interface{}{
		"bike_id":     createdBike.ID,
		"category_id": createdBike.CategoryID,
	})

	return createdBike, nil
}

func (s *BikeService) GetBikeByID(ctx context.Context, bikeID string) (*domain.Bike, error) {
	bikeUUID, err := parseID(s.logger, "bike", bikeID)
	if err != nil {
		return nil, err
	}

	cacheKey := bikeCacheKey(bikeUUID)
	cachedData, err := s.cache.Get(cacheKey)
	if err == nil {
		var cachedBike domain.Bike
		if err := json.Unmarshal(cachedData, &cachedBike); err == nil {
			s.logger.Debug("Bike found in cache", map[string]interface{}{
				"bike_id": bikeID,
			})
			return &cachedBike, nil
		}
	}

	bike, err := s.bikeRepo.GetBikeByID(ctx, bikeUUID)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	bikeData, err := json.Marshal(bike)
	if err != nil {
		s.logger.Warn("Failed to marshal bike for cache", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
	} else {
		if err := s.cache.Set(cacheKey, bikeData, bikeCacheTTL); err != nil {
			s.logger.Warn("Failed to cache bike", map[string]interface{}{
				"error":   err.Error(),
				"bike_id": bikeID,
			})
		}
	}

	return bike, nil
}

func (s *BikeService) ListBikes(ctx context.Context, filter domain.BikeFilter, page domain.Page) ([]*domain.Bike, domain.Pagination, error) {
	if len(filter.Sort) == 0 {
		filter.Sort = domain.ParseBikeSort("")
	}

	bikes, total, err := s.bikeRepo.ListBikes(ctx, filter, page)
	if err != nil {
		s.logger.Error("Failed to list bikes", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, domain.Pagination{}, err
	}

	s.logger.Debug("Listed bikes", map[string]interface{}{
		"bikes_count": len(bikes),
		"total":       total,
		"page":        page.Page,
	})

	return bikes, page.Paginate(total), nil
}

// SearchBikes runs a text search over name and description, limited to bikes open for rent.
func (s *BikeService) SearchBikes(ctx context.Context, query string) ([]*domain.Bike, error) {
	available := true
	filter := domain.BikeFilter{
		Search:    query,
		Available: &available,
		Sort:      domain.ParseBikeSort("-rating"),
	}

	bikes, _, err := s.bikeRepo.ListBikes(ctx, filter, domain.NewPage(1, searchResultSize))
	if err != nil {
		s.logger.Error("Failed to search bikes", map[string]interface{}{
			"error": err.Error(),
			"query": query,
		})
		return nil, err
	}

	return bikes, nil
}

func (s *BikeService) UpdateBike(ctx context.Context, bikeID string, update domain.BikeUpdate) (*domain.Bike, error) {
	bikeUUID, err := parseID(s.logger, "bike", bikeID)
	if err != nil {
		return nil, err
	}

	bike, err := s.bikeRepo.GetBikeByID(ctx, bikeUUID)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	oldCategory := bike.CategoryID
	categoryChanged := update.Apply(bike)
	if err := s.validateBike(bike); err != nil {
		return nil, err
	}

	if categoryChanged {
		if _, err := s.categoryRepo.GetCategoryByID(ctx, bike.CategoryID); err != nil {
			s.logger.Error("Failed to get new bike category", map[string]interface{}{
				"error":       err.Error(),
				"category_id": bike.CategoryID,
			})
			return nil, err
		}
	}

	updatedBike, err := s.bikeRepo.UpdateBike(ctx, bike)
	if err != nil {
		s.logger.Error("Failed to update bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	if categoryChanged {
		for _, categoryID := range []uuid.UUID{oldCategory, updatedBike.CategoryID} {
			if err := s.aggregates.RefreshCategoryCount(ctx, categoryID); err != nil {
				s.logger.Error("Failed to refresh category bike count", map[string]interface{}{
					"error":       err.Error(),
					"category_id": categoryID,
				})
			}
		}
	}

	if err := s.cache.Delete(bikeCacheKey(bikeUUID)); err != nil {
		s.logger.Warn("Failed to invalidate bike cache", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
	}

	s.logger.Info("Bike updated successfully", map[string]interface{}{
		"bike_id":          bikeID,
		"category_changed": categoryChanged,
	})

	return updatedBike, nil
}

// DeleteBike removes the bike together with its bookings and reviews. The steps run one after another
// without a transaction; a failure part way leaves the remaining records for an operator to clean up.
func (s *BikeService) DeleteBike(ctx context.Context, bikeID string) error {
	bikeUUID, err := parseID(s.logger, "bike", bikeID)
	if err != nil {
		return err
	}

	bike, err := s.bikeRepo.GetBikeByID(ctx, bikeUUID)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return err
	}

	bookings, err := s.bookingRepo.GetBookingsByBike(ctx, bikeUUID, nil)
	if err != nil {
		s.logger.Error("Failed to load bike bookings before delete", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return err
	}
	bookingIDs := make([]uuid.UUID, len(bookings))
	for i, b := range bookings {
		bookingIDs[i] = b.ID
	}

	deletedBookings, err := s.bookingRepo.DeleteBookingsByBike(ctx, bikeUUID)
	if err != nil {
		return s.cascadeFailed("bookings", bikeID, err)
	}

	deletedReviews, err := s.reviewRepo.DeleteReviewsByBike(ctx, bikeUUID)
	if err != nil {
		return s.cascadeFailed("reviews", bikeID, err)
	}

	if err := s.bikeRepo.DeleteBike(ctx, bikeUUID); err != nil {
		return s.cascadeFailed("bike", bikeID, err)
	}

	if err := s.userRepo.RemoveBikeReferences(ctx, bikeUUID, bookingIDs); err != nil {
		s.logger.Error("Failed to remove bike references from users", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
	}

	if err := s.aggregates.RefreshCategoryCount(ctx, bike.CategoryID); err != nil {
		s.logger.Error("Failed to refresh category bike count", map[string]interface{}{
			"error":       err.Error(),
			"category_id": bike.CategoryID,
		})
	}

	if err := s.cache.Delete(bikeCacheKey(bikeUUID)); err != nil {
		s.logger.Warn("Failed to invalidate bike cache", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
	}

	s.logger.Info("Bike deleted successfully", map[string]interface{}{
		"bike_id":          bikeID,
		"deleted_bookings": deletedBookings,
		"deleted_reviews":  deletedReviews,
	})

	return nil
}

func (s *BikeService) GetBikeStats(ctx context.Context) ([]domain.BikeTypeStats, error) {
	stats, err := s.bikeRepo.GetBikeStats(ctx)
	if err != nil {
		s.logger.Error("Failed to get bike stats", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return stats, nil
}

func (s *BikeService) validateBike(bike *domain.Bike) error {
	if err := validateStruct(s.validate, s.logger, "Bike", bike); err != nil {
		return err
	}
	if !bike.ValidPrice() {
		return fmt.Errorf("%w: price per day must be at least 1", domain.ErrValidation)
	}
	return nil
}

func (s *BikeService) cascadeFailed(step, bikeID string, err error) error {
	s.logger.Error("Bike cascade delete interrupted, orphaned records may remain", map[string]interface{}{
		"error":   err.Error(),
		"bike_id": bikeID,
		"step":    step,
	})
	return fmt.Errorf("delete bike %s (%s): %w", bikeID, step, err)
}
