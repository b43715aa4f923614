package ports

import (
	"context"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
)

type BikeRepository interface {
	CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error)
	GetBikeByID(ctx context.Context, bikeID uuid.UUID) (*domain.Bike, error)
	GetBikesByIDs(ctx context.Context, bikeIDs []uuid.UUID) ([]*domain.Bike, error)
	ListBikes(ctx context.Context, filter domain.BikeFilter, page domain.Page) ([]*domain.Bike, int64, error)
	// UpdateBike writes descriptive fields only; rating and reviewCount are left alone.
	UpdateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error)
	DeleteBike(ctx context.Context, bikeID uuid.UUID) error
	CountBikesByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	SetRatingStats(ctx context.Context, bikeID uuid.UUID, rating float64, reviewCount int) error
	GetBikeStats(ctx context.Context) ([]domain.BikeTypeStats, error)
}
