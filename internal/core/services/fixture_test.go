package services

import (
	"context"
	"testing"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/logger"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/memory"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/payment"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store      *memory.Store
	cache      *memory.Cache
	payments   *payment.SandboxGateway
	bikes      *BikeService
	bookings   *BookingService
	reviews    *ReviewService
	categories *CategoryService
	users      *UserService
}

func newFixture(t *testing.T, opts ...BookingOption) *fixture {
	t.Helper()

	store := memory.NewStore()
	cache := memory.NewCache()
	payments := payment.NewSandboxGateway()
	log := logger.NewLoggerAdapter("production")
	validate := validator.New()

	aggregates := NewAggregateService(store, store, store, cache, log)
	return &fixture{
		store:      store,
		cache:      cache,
		payments:   payments,
		bikes:      NewBikeService(store, store, store, store, store, aggregates, log, validate, cache),
		bookings:   NewBookingService(store, store, store, NewAvailabilityChecker(store), payments, log, validate, opts...),
		reviews:    NewReviewService(store, store, aggregates, log, validate),
		categories: NewCategoryService(store, store, log, validate),
		users:      NewUserService(store, store, store, log),
	}
}

func customer() *domain.TokenPayload {
	return &domain.TokenPayload{ID: uuid.New(), UserID: uuid.New(), Role: domain.AppUser}
}

func admin() *domain.TokenPayload {
	return &domain.TokenPayload{ID: uuid.New(), UserID: uuid.New(), Role: domain.Admin}
}

func onDate(day int) time.Time {
	return time.Date(2026, time.June, day, 10, 0, 0, 0, time.UTC)
}

func (f *fixture) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := f.categories.CreateCategory(context.Background(), &domain.Category{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) bike(t *testing.T, categoryID uuid.UUID, pricePerDay int64) *domain.Bike {
	t.Helper()
	b, err := f.bikes.CreateBike(context.Background(), &domain.Bike{
		Name:        "Trek Marlin 7",
		Description: "Hardtail trail bike",
		Type:        domain.Mountain,
		Brand:       "Trek",
		PricePerDay: decimal.NewFromInt(pricePerDay),
		Specifications: domain.Specifications{
			FrameSize: "M",
			Gears:     21,
			Weight:    13.5,
			WheelSize: "29",
			Material:  "Aluminium",
			Brakes:    "Disc",
		},
		Location:     domain.Location{City: "Denver"},
		Availability: true,
		CategoryID:   categoryID,
	})
	require.NoError(t, err)
	return b
}

// completedBooking books, pays, confirms and completes a booking for actor.
func (f *fixture) completedBooking(t *testing.T, actor *domain.TokenPayload, bikeID uuid.UUID, startDay int) *domain.Booking {
	t.Helper()
	ctx := context.Background()

	b := f.confirmedBooking(t, actor, bikeID, startDay)
	ops := admin()
	_, err := f.bookings.AdvanceBooking(ctx, ops, b.ID.String(), domain.BookingActive)
	require.NoError(t, err)
	b, err = f.bookings.AdvanceBooking(ctx, ops, b.ID.String(), domain.BookingCompleted)
	require.NoError(t, err)
	return b
}

func (f *fixture) confirmedBooking(t *testing.T, actor *domain.TokenPayload, bikeID uuid.UUID, startDay int) *domain.Booking {
	t.Helper()
	ctx := context.Background()

	b, err := f.bookings.CreateBooking(ctx, actor, domain.BookingRequest{
		BikeID:    bikeID,
		StartDate: onDate(startDay),
		EndDate:   onDate(startDay + 2),
	})
	require.NoError(t, err)
	_, err = f.bookings.CreatePayment(ctx, actor, b.ID.String())
	require.NoError(t, err)
	b, err = f.bookings.ConfirmPayment(ctx, actor, b.ID.String())
	require.NoError(t, err)
	return b
}
