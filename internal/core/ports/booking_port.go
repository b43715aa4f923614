package ports

import (
	"context"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetBookingByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	GetBookingsByIDs(ctx context.Context, bookingIDs []uuid.UUID) ([]*domain.Booking, error)
	ListBookings(ctx context.Context, filter domain.BookingFilter, page domain.Page) ([]*domain.Booking, int64, error)
	// GetBookingsByBike returns every booking of the bike whose status is in statuses, or all of them when statuses is empty.
	GetBookingsByBike(ctx context.Context, bikeID uuid.UUID, statuses []domain.BookingStatus) ([]*domain.Booking, error)
	UpdateBooking(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	DeleteBookingsByBike(ctx context.Context, bikeID uuid.UUID) (int64, error)
	GetBookingStats(ctx context.Context) ([]domain.BookingStatusStats, error)
}
