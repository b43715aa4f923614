package ports

import (
	"context"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
)

type UserRepository interface {
	// GetOrCreateUser returns the rental profile, creating an empty one on first access.
	GetOrCreateUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context, page domain.Page) ([]*domain.User, int64, error)
	// AddFavorite returns false when the bike was already a favorite.
	AddFavorite(ctx context.Context, userID, bikeID uuid.UUID) (bool, error)
	RemoveFavorite(ctx context.Context, userID, bikeID uuid.UUID) error
	AddBooking(ctx context.Context, userID, bookingID uuid.UUID) error
	// RemoveBikeReferences pulls the bike from every favorites set and the bookings from every back reference list.
	RemoveBikeReferences(ctx context.Context, bikeID uuid.UUID, bookingIDs []uuid.UUID) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}
