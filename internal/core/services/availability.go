package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/google/uuid"
)

// AvailabilityChecker answers whether a bike is free for a date range.
// The bookings collection is the only schedule; there is no separate index.
type AvailabilityChecker struct {
	bookingRepo ports.BookingRepository
}

func NewAvailabilityChecker(bookingRepo ports.BookingRepository) *AvailabilityChecker {
	return &AvailabilityChecker{bookingRepo: bookingRepo}
}

// IsAvailable reports true when no confirmed or active booking of the bike overlaps [start, end).
func (a *AvailabilityChecker) IsAvailable(ctx context.Context, bikeID uuid.UUID, start, end time.Time) (bool, error) {
	bookings, err := a.bookingRepo.GetBookingsByBike(ctx, bikeID, domain.BlockingStatuses)
	if err != nil {
		return false, fmt.Errorf("check availability of bike %s: %w", bikeID, err)
	}

	for _, b := range bookings {
		if b.Status.Blocking() && b.Overlaps(start, end) {
			return false, nil
		}
	}
	return true, nil
}
