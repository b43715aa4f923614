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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingService_CreateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Mountain").ID, 25)
	user := customer()

	booking, err := f.bookings.CreateBooking(ctx, user, domain.BookingRequest{
		BikeID:          bike.ID,
		StartDate:       onDate(1),
		EndDate:         onDate(4).Add(time.Hour),
		SpecialRequests: "Child seat",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.BookingPending, booking.Status)
	assert.Equal(t, domain.PaymentPending, booking.PaymentStatus)
	assert.Equal(t, 4, booking.TotalDays)
	assert.True(t, decimal.NewFromInt(100).Equal(booking.TotalPrice))
	assert.Equal(t, "Denver", booking.PickupLocation.City)

	profile, err := f.users.GetProfile(ctx, user)
	require.NoError(t, err)
	require.Len(t, profile.Bookings, 1)
	assert.Equal(t, booking.ID, profile.Bookings[0].ID)
}

func TestBookingService_CreateBooking_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Road").ID, 20)
	f.confirmedBooking(t, customer(), bike.ID, 10)

	tests := []struct {
		name    string
		req     domain.BookingRequest
		wantErr error
	}{
		{
			name:    "end before start",
			req:     domain.BookingRequest{BikeID: bike.ID, StartDate: onDate(5), EndDate: onDate(3)},
			wantErr: domain.ErrInvalidRange,
		},
		{
			name:    "range checked before bike lookup",
			req:     domain.BookingRequest{BikeID: uuid.New(), StartDate: onDate(5), EndDate: onDate(5)},
			wantErr: domain.ErrInvalidRange,
		},
		{
			name:    "unknown bike",
			req:     domain.BookingRequest{BikeID: uuid.New(), StartDate: onDate(1), EndDate: onDate(2)},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "overlaps confirmed booking",
			req:     domain.BookingRequest{BikeID: bike.ID, StartDate: onDate(11), EndDate: onDate(13)},
			wantErr: domain.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.CreateBooking(ctx, customer(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("back to back is fine", func(t *testing.T) {
		_, err := f.bookings.CreateBooking(ctx, customer(), domain.BookingRequest{
			BikeID: bike.ID, StartDate: onDate(12), EndDate: onDate(14),
		})
		assert.NoError(t, err)
	})

	t.Run("withdrawn bike", func(t *testing.T) {
		off := false
		_, err := f.bikes.UpdateBike(ctx, bike.ID.String(), domain.BikeUpdate{Availability: &off})
		require.NoError(t, err)

		_, err = f.bookings.CreateBooking(ctx, customer(), domain.BookingRequest{
			BikeID: bike.ID, StartDate: onDate(20), EndDate: onDate(21),
		})
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})
}

func TestBookingService_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Hybrid").ID, 15)
	owner := customer()

	booking, err := f.bookings.CreateBooking(ctx, owner, domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(1), EndDate: onDate(2),
	})
	require.NoError(t, err)

	_, err = f.bookings.GetBooking(ctx, customer(), booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.bookings.GetBooking(ctx, admin(), booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	_, err = f.bookings.CreatePayment(ctx, admin(), booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrForbidden, "only the owner pays")

	_, err = f.bookings.GetBooking(ctx, owner, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBookingService_ListBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "BMX").ID, 10)
	alice, bob := customer(), customer()

	for day := 1; day <= 3; day++ {
		_, err := f.bookings.CreateBooking(ctx, alice, domain.BookingRequest{
			BikeID: bike.ID, StartDate: onDate(day), EndDate: onDate(day + 1),
		})
		require.NoError(t, err)
	}
	f.confirmedBooking(t, bob, bike.ID, 20)

	own, pagination, err := f.bookings.ListBookings(ctx, alice, "", domain.NewPage(1, 2))
	require.NoError(t, err)
	assert.Len(t, own, 2)
	assert.Equal(t, int64(3), pagination.Total)
	assert.True(t, pagination.HasNext)

	all, _, err := f.bookings.ListBookings(ctx, admin(), "", domain.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, all, 4)

	confirmed, _, err := f.bookings.ListBookings(ctx, admin(), domain.BookingConfirmed, domain.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, bob.UserID, confirmed[0].UserID)

	_, _, err = f.bookings.ListBookings(ctx, alice, "archived", domain.NewPage(1, 10))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBookingService_PaymentFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Electric").ID, 40)
	user := customer()

	booking, err := f.bookings.CreateBooking(ctx, user, domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(1), EndDate: onDate(3),
	})
	require.NoError(t, err)

	_, err = f.bookings.ConfirmPayment(ctx, user, booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrValidation, "no intent yet")

	intent, err := f.bookings.CreatePayment(ctx, user, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(8000), f.payments.Amount(intent.ID))

	confirmed, err := f.bookings.ConfirmPayment(ctx, user, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, confirmed.Status)
	assert.Equal(t, domain.PaymentPaid, confirmed.PaymentStatus)
	assert.Equal(t, intent.ID, confirmed.PaymentIntentID)

	_, err = f.bookings.CreatePayment(ctx, user, booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	_, err = f.bookings.ConfirmPayment(ctx, user, booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestBookingService_ConfirmPayment_NotSettled(t *testing.T) {
	f := newFixture(t)
	f.payments.AutoSucceed = false
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Cruiser").ID, 12)
	user := customer()

	booking, err := f.bookings.CreateBooking(ctx, user, domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(1), EndDate: onDate(2),
	})
	require.NoError(t, err)
	intent, err := f.bookings.CreatePayment(ctx, user, booking.ID.String())
	require.NoError(t, err)

	_, err = f.bookings.ConfirmPayment(ctx, user, booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)

	f.payments.Succeed(intent.ID)
	confirmed, err := f.bookings.ConfirmPayment(ctx, user, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, confirmed.Status)
}

func TestBookingService_CreatePayment_ReusesOpenIntent(t *testing.T) {
	f := newFixture(t)
	f.payments.AutoSucceed = false
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Cruiser").ID, 12)
	user := customer()

	booking, err := f.bookings.CreateBooking(ctx, user, domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(1), EndDate: onDate(2),
	})
	require.NoError(t, err)

	first, err := f.bookings.CreatePayment(ctx, user, booking.ID.String())
	require.NoError(t, err)
	again, err := f.bookings.CreatePayment(ctx, user, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.ClientSecret, again.ClientSecret)

	f.payments.Succeed(first.ID)
	_, err = f.bookings.CreatePayment(ctx, user, booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	confirmed, err := f.bookings.ConfirmPayment(ctx, user, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.ID, confirmed.PaymentIntentID)
}

// underpaidGateway reports one cent less than was charged.
type underpaidGateway struct {
	*payment.SandboxGateway
}

func (g underpaidGateway) GetPaymentIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	intent, err := g.SandboxGateway.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	intent.Amount--
	return intent, nil
}

func TestBookingService_ConfirmPayment_AmountMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Cruiser").ID, 12)
	user := customer()

	bookings := NewBookingService(f.store, f.store, f.store, NewAvailabilityChecker(f.store),
		underpaidGateway{f.payments}, logger.NewLoggerAdapter("production"), validator.New())

	booking, err := bookings.CreateBooking(ctx, user, domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(1), EndDate: onDate(2),
	})
	require.NoError(t, err)
	_, err = bookings.CreatePayment(ctx, user, booking.ID.String())
	require.NoError(t, err)

	_, err = bookings.ConfirmPayment(ctx, user, booking.ID.String())
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)

	stored, err := bookings.GetBooking(ctx, user, booking.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, stored.Status)
	assert.Equal(t, domain.PaymentPending, stored.PaymentStatus)
}

func TestBookingService_ConfirmPayment_DatesTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Road").ID, 30)
	first, second := customer(), customer()

	loser, err := f.bookings.CreateBooking(ctx, second, domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(2), EndDate: onDate(4),
	})
	require.NoError(t, err)
	intent, err := f.bookings.CreatePayment(ctx, second, loser.ID.String())
	require.NoError(t, err)

	f.confirmedBooking(t, first, bike.ID, 1)

	_, err = f.bookings.ConfirmPayment(ctx, second, loser.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.True(t, f.payments.Refunded(intent.ID))

	stored, err := f.bookings.GetBooking(ctx, second, loser.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, stored.Status)
	assert.Equal(t, domain.PaymentRefunded, stored.PaymentStatus)
	assert.Equal(t, unavailableAfterPayment, stored.CancellationReason)
	assert.NotNil(t, stored.CancelledAt)
}

func TestBookingService_CancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Mountain").ID, 25)
	user := customer()

	t.Run("pending keeps payment status", func(t *testing.T) {
		booking, err := f.bookings.CreateBooking(ctx, user, domain.BookingRequest{
			BikeID: bike.ID, StartDate: onDate(1), EndDate: onDate(2),
		})
		require.NoError(t, err)

		cancelled, err := f.bookings.CancelBooking(ctx, user, booking.ID.String(), "")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, cancelled.Status)
		assert.Equal(t, domain.PaymentPending, cancelled.PaymentStatus)
		assert.Equal(t, defaultCancellationReason, cancelled.CancellationReason)

		_, err = f.bookings.CancelBooking(ctx, user, booking.ID.String(), "again")
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})

	t.Run("paid is refunded and frees the dates", func(t *testing.T) {
		booking := f.confirmedBooking(t, user, bike.ID, 10)

		cancelled, err := f.bookings.CancelBooking(ctx, user, booking.ID.String(), "Plans changed")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentRefunded, cancelled.PaymentStatus)
		assert.Equal(t, "Plans changed", cancelled.CancellationReason)
		assert.True(t, f.payments.Refunded(booking.PaymentIntentID))

		quote, err := f.bookings.QuoteBooking(ctx, bike.ID.String(), onDate(10), onDate(12))
		require.NoError(t, err)
		assert.True(t, quote.Available)
	})

	t.Run("completed cannot be cancelled", func(t *testing.T) {
		booking := f.completedBooking(t, user, bike.ID, 20)
		_, err := f.bookings.CancelBooking(ctx, user, booking.ID.String(), "")
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})

	t.Run("stranger is refused", func(t *testing.T) {
		booking, err := f.bookings.CreateBooking(ctx, user, domain.BookingRequest{
			BikeID: bike.ID, StartDate: onDate(25), EndDate: onDate(26),
		})
		require.NoError(t, err)
		_, err = f.bookings.CancelBooking(ctx, customer(), booking.ID.String(), "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestBookingService_UpdateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Hybrid").ID, 18)
	user := customer()

	booking, err := f.bookings.CreateBooking(ctx, user, domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(1), EndDate: onDate(2),
	})
	require.NoError(t, err)

	updated, err := f.bookings.UpdateBooking(ctx, user, booking.ID.String(), "Helmet size L")
	require.NoError(t, err)
	assert.Equal(t, "Helmet size L", updated.SpecialRequests)
	assert.Equal(t, booking.StartDate, updated.StartDate)

	_, err = f.bookings.CancelBooking(ctx, user, booking.ID.String(), "")
	require.NoError(t, err)
	_, err = f.bookings.UpdateBooking(ctx, user, booking.ID.String(), "too late")
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestBookingService_AdvanceBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Road").ID, 22)
	user := customer()
	booking := f.confirmedBooking(t, user, bike.ID, 1)

	_, err := f.bookings.AdvanceBooking(ctx, user, booking.ID.String(), domain.BookingActive)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.bookings.AdvanceBooking(ctx, admin(), booking.ID.String(), domain.BookingCompleted)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition, "confirmed cannot skip active")

	_, err = f.bookings.AdvanceBooking(ctx, admin(), booking.ID.String(), domain.BookingCancelled)
	assert.ErrorIs(t, err, domain.ErrValidation)

	active, err := f.bookings.AdvanceBooking(ctx, admin(), booking.ID.String(), domain.BookingActive)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingActive, active.Status)

	completed, err := f.bookings.AdvanceBooking(ctx, admin(), booking.ID.String(), domain.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
}

func TestBookingService_QuoteBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Mountain").ID, 25)
	f.confirmedBooking(t, customer(), bike.ID, 5)

	quote, err := f.bookings.QuoteBooking(ctx, bike.ID.String(), onDate(1), onDate(1).Add(25*time.Hour))
	require.NoError(t, err)
	assert.True(t, quote.Available)
	assert.Equal(t, 2, quote.TotalDays)
	assert.True(t, decimal.NewFromInt(50).Equal(quote.TotalPrice))

	quote, err = f.bookings.QuoteBooking(ctx, bike.ID.String(), onDate(6), onDate(8))
	require.NoError(t, err)
	assert.False(t, quote.Available)

	_, err = f.bookings.QuoteBooking(ctx, bike.ID.String(), onDate(8), onDate(6))
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestBookingService_Lock(t *testing.T) {
	locker := memory.NewLocker()
	f := newFixture(t, WithBookingLock(locker, time.Minute))
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Mountain").ID, 25)

	release, err := locker.Acquire(ctx, "booking-lock:bike:"+bike.ID.String(), time.Minute)
	require.NoError(t, err)

	_, err = f.bookings.CreateBooking(ctx, customer(), domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(1), EndDate: onDate(2),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	release()
	_, err = f.bookings.CreateBooking(ctx, customer(), domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(1), EndDate: onDate(2),
	})
	assert.NoError(t, err)
}

func TestBookingService_GetBookingStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Mountain").ID, 25)
	f.confirmedBooking(t, customer(), bike.ID, 1)
	_, err := f.bookings.CreateBooking(ctx, customer(), domain.BookingRequest{
		BikeID: bike.ID, StartDate: onDate(10), EndDate: onDate(11),
	})
	require.NoError(t, err)

	stats, err := f.bookings.GetBookingStats(ctx)
	require.NoError(t, err)

	byStatus := make(map[domain.BookingStatus]domain.BookingStatusStats)
	for _, s := range stats {
		byStatus[s.Status] = s
	}
	assert.Equal(t, int64(1), byStatus[domain.BookingConfirmed].Count)
	assert.True(t, decimal.NewFromInt(50).Equal(byStatus[domain.BookingConfirmed].TotalRevenue))
	assert.Equal(t, int64(1), byStatus[domain.BookingPending].Count)
}
