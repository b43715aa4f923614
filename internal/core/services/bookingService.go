package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultCancellationReason = "Cancelled by user"
	unavailableAfterPayment   = "Bike no longer available for the selected dates"
)

type BookingService struct {
	bookingRepo  ports.BookingRepository
	bikeRepo     ports.BikeRepository
	userRepo     ports.UserRepository
	availability *AvailabilityChecker
	payments     ports.PaymentGateway
	locker       ports.LockPort
	lockTTL      time.Duration
	logger       ports.LoggerPort
	validate     *validator.Validate
	now          func() time.Time
}

type BookingOption func(*BookingService)

// WithBookingLock serializes create and confirm per bike through locker.
func WithBookingLock(locker ports.LockPort, ttl time.Duration) BookingOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookingRepo ports.BookingRepository,
	bikeRepo ports.BikeRepository,
	userRepo ports.UserRepository,
	availability *AvailabilityChecker,
	payments ports.PaymentGateway,
	logger ports.LoggerPort,
	validate *validator.Validate,
	opts ...BookingOption,
) *BookingService {
	s := &BookingService{
		bookingRepo:  bookingRepo,
		bikeRepo:     bikeRepo,
		userRepo:     userRepo,
		availability: availability,
		payments:     payments,
		logger:       logger,
		validate:     validate,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) CreateBooking(ctx context.Context, actor *domain.TokenPayload, req domain.BookingRequest) (*domain.Booking, error) {
	if err := validateStruct(s.validate, s.logger, "Booking request", req); err != nil {
		return nil, err
	}

	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("booking from %s to %s: %w",
			req.StartDate.Format(time.RFC3339), req.EndDate.Format(time.RFC3339), domain.ErrInvalidRange)
	}

	release, err := s.lock(ctx, req.BikeID)
	if err != nil {
		return nil, err
	}
	defer release()

	bike, err := s.bikeRepo.GetBikeByID(ctx, req.BikeID)
	if err != nil {
		s.logger.Error("Failed to get bike for booking", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": req.BikeID,
		})
		return nil, err
	}

	if !bike.Availability {
		return nil, fmt.Errorf("bike %s is withdrawn from rental: %w", bike.ID, domain.ErrUnavailable)
	}

	free, err := s.availability.IsAvailable(ctx, bike.ID, req.StartDate, req.EndDate)
	if err != nil {
		s.logger.Error("Failed to check bike availability", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bike.ID,
		})
		return nil, err
	}
	if !free {
		s.logger.Info("Booking rejected, dates taken", map[string]interface{}{
			"bike_id":    bike.ID,
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
		})
		return nil, fmt.Errorf("bike %s for %s - %s: %w", bike.ID,
			req.StartDate.Format(time.RFC3339), req.EndDate.Format(time.RFC3339), domain.ErrUnavailable)
	}

	totalDays, totalPrice, err := domain.ComputeTotal(bike.PricePerDay, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking := &domain.Booking{
		ID:              uuid.New(),
		UserID:          actor.UserID,
		BikeID:          bike.ID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		TotalDays:       totalDays,
		TotalPrice:      totalPrice,
		Status:          domain.BookingPending,
		PaymentStatus:   domain.PaymentPending,
		PickupLocation:  bike.Location,
		SpecialRequests: req.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	createdBooking, err := s.bookingRepo.CreateBooking(ctx, booking)
	if err != nil {
		s.logger.Error("Failed to create booking", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bike.ID,
			"user_id": actor.UserID,
		})
		return nil, err
	}

	if err := s.userRepo.AddBooking(ctx, actor.UserID, createdBooking.ID); err != nil {
		s.logger.Error("Failed to link booking to user", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": createdBooking.ID,
			"user_id":    actor.UserID,
		})
	}

	s.logger.Info("Booking created successfully", map[string]interface{}{
		"booking_id":  createdBooking.ID,
		"bike_id":     bike.ID,
		"user_id":     actor.UserID,
		"total_days":  totalDays,
		"total_price": totalPrice.String(),
	})

	return createdBooking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor *domain.TokenPayload, bookingID string) (*domain.Booking, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(booking.UserID) {
		return nil, s.forbidden(actor, booking)
	}
	return booking, nil
}

// ListBookings returns every booking to admins and the caller's own bookings to everyone else.
func (s *BookingService) ListBookings(ctx context.Context, actor *domain.TokenPayload, status domain.BookingStatus, page domain.Page) ([]*domain.Booking, domain.Pagination, error) {
	var filter domain.BookingFilter
	if !actor.IsAdmin() {
		filter.UserID = &actor.UserID
	}
	if status != "" {
		if !status.Valid() {
			return nil, domain.Pagination{}, fmt.Errorf("%w: unknown booking status %q", domain.ErrValidation, status)
		}
		filter.Status = status
	}

	bookings, total, err := s.bookingRepo.ListBookings(ctx, filter, page)
	if err != nil {
		s.logger.Error("Failed to list bookings", map[string]interface{}{
			"error":   err.Error(),
			"user_id": actor.UserID,
		})
		return nil, domain.Pagination{}, err
	}

	return bookings, page.Paginate(total), nil
}

func (s *BookingService) UpdateBooking(ctx context.Context, actor *domain.TokenPayload, bookingID string, specialRequests string) (*domain.Booking, error) {
	booking, err := s.GetBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status.Terminal() {
		return nil, fmt.Errorf("booking %s is %s: %w", booking.ID, booking.Status, domain.ErrIllegalTransition)
	}

	booking.SpecialRequests = specialRequests
	if err := validateStruct(s.validate, s.logger, "Booking", booking); err != nil {
		return nil, err
	}
	booking.UpdatedAt = s.now()

	updatedBooking, err := s.bookingRepo.UpdateBooking(ctx, booking)
	if err != nil {
		s.logger.Error("Failed to update booking", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": bookingID,
		})
		return nil, err
	}

	return updatedBooking, nil
}

// CancelBooking refunds a paid booking before cancelling it. Completed and cancelled bookings stay as they are.
func (s *BookingService) CancelBooking(ctx context.Context, actor *domain.TokenPayload, bookingID string, reason string) (*domain.Booking, error) {
	booking, err := s.GetBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.CanTransition(domain.BookingCancelled) {
		return nil, fmt.Errorf("booking %s: %s -> %s: %w",
			booking.ID, booking.Status, domain.BookingCancelled, domain.ErrIllegalTransition)
	}

	if reason == "" {
		reason = defaultCancellationReason
	}

	if booking.PaymentStatus == domain.PaymentPaid {
		if err := s.refund(ctx, booking); err != nil {
			return nil, err
		}
	}

	return s.cancel(ctx, booking, reason)
}

// CreatePayment opens a payment intent for the booking total. Only the booking owner may pay.
// An intent that is still open for the same amount is handed out again instead of opening a second one.
func (s *BookingService) CreatePayment(ctx context.Context, actor *domain.TokenPayload, bookingID string) (*domain.PaymentIntent, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor == nil || booking.UserID != actor.UserID {
		return nil, s.forbidden(actor, booking)
	}
	if booking.Status != domain.BookingPending || booking.PaymentStatus != domain.PaymentPending {
		return nil, fmt.Errorf("booking %s is %s/%s, payment needs pending: %w",
			booking.ID, booking.Status, booking.PaymentStatus, domain.ErrIllegalTransition)
	}

	if booking.PaymentIntentID != "" {
		existing, err := s.reusableIntent(ctx, booking)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, domain.PaymentRequest{
		BookingID: booking.ID,
		BikeID:    booking.BikeID,
		Amount:    booking.TotalPrice,
	})
	if err != nil {
		s.logger.Error("Failed to create payment intent", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": booking.ID,
		})
		return nil, fmt.Errorf("create payment intent for booking %s: %w: %v", booking.ID, domain.ErrPaymentFailed, err)
	}

	booking.PaymentIntentID = intent.ID
	booking.UpdatedAt = s.now()
	if _, err := s.bookingRepo.UpdateBooking(ctx, booking); err != nil {
		s.logger.Error("Failed to store payment intent on booking", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": booking.ID,
			"intent_id":  intent.ID,
		})
		return nil, err
	}

	s.logger.Info("Payment intent created", map[string]interface{}{
		"booking_id": booking.ID,
		"intent_id":  intent.ID,
		"amount":     booking.TotalPrice.String(),
	})

	return intent, nil
}

// reusableIntent returns the booking's current intent while it can still be paid. It returns nil when
// the intent is finished without payment and a new one should be opened.
func (s *BookingService) reusableIntent(ctx context.Context, booking *domain.Booking) (*domain.PaymentIntent, error) {
	intent, err := s.payments.GetPaymentIntent(ctx, booking.PaymentIntentID)
	if err != nil {
		s.logger.Error("Failed to get payment intent", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": booking.ID,
			"intent_id":  booking.PaymentIntentID,
		})
		return nil, fmt.Errorf("get payment intent %s: %w: %v", booking.PaymentIntentID, domain.ErrPaymentFailed, err)
	}

	switch intent.Status {
	case domain.IntentSucceeded:
		return nil, fmt.Errorf("booking %s is already paid, confirm the payment: %w", booking.ID, domain.ErrIllegalTransition)
	case domain.IntentCanceled:
		return nil, nil
	}
	if intent.Amount != domain.MinorUnits(booking.TotalPrice) {
		return nil, nil
	}
	return intent, nil
}

// ConfirmPayment moves a pending booking to confirmed once the gateway reports the payment succeeded.
// The dates are checked again; if another booking took them meanwhile the payment is refunded and the
// booking cancelled.
func (s *BookingService) ConfirmPayment(ctx context.Context, actor *domain.TokenPayload, bookingID string) (*domain.Booking, error) {
	booking, err := s.GetBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingPending {
		return nil, fmt.Errorf("booking %s: %s -> %s: %w",
			booking.ID, booking.Status, domain.BookingConfirmed, domain.ErrIllegalTransition)
	}
	if booking.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: booking %s has no payment intent", domain.ErrValidation, booking.ID)
	}

	intent, err := s.payments.GetPaymentIntent(ctx, booking.PaymentIntentID)
	if err != nil {
		s.logger.Error("Failed to get payment intent", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": booking.ID,
			"intent_id":  booking.PaymentIntentID,
		})
		return nil, fmt.Errorf("get payment intent %s: %w: %v", booking.PaymentIntentID, domain.ErrPaymentFailed, err)
	}
	if intent.Status != domain.IntentSucceeded {
		return nil, fmt.Errorf("payment intent %s is %s: %w", intent.ID, intent.Status, domain.ErrPaymentFailed)
	}
	if want := domain.MinorUnits(booking.TotalPrice); intent.Amount != want {
		s.logger.Error("Payment amount does not match booking total", map[string]interface{}{
			"booking_id": booking.ID,
			"intent_id":  intent.ID,
			"paid":       intent.Amount,
			"expected":   want,
		})
		return nil, fmt.Errorf("payment intent %s covers %d, booking total is %d: %w",
			intent.ID, intent.Amount, want, domain.ErrPaymentFailed)
	}

	release, err := s.lock(ctx, booking.BikeID)
	if err != nil {
		return nil, err
	}
	defer release()

	free, err := s.availability.IsAvailable(ctx, booking.BikeID, booking.StartDate, booking.EndDate)
	if err != nil {
		return nil, err
	}
	if !free {
		s.logger.Warn("Dates taken while payment was in flight, refunding", map[string]interface{}{
			"booking_id": booking.ID,
			"bike_id":    booking.BikeID,
		})
		booking.PaymentStatus = domain.PaymentPaid
		if err := s.refund(ctx, booking); err != nil {
			return nil, err
		}
		if _, err := s.cancel(ctx, booking, unavailableAfterPayment); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("bike %s: %w", booking.BikeID, domain.ErrUnavailable)
	}

	if err := booking.TransitionTo(domain.BookingConfirmed, s.now()); err != nil {
		return nil, err
	}
	booking.PaymentStatus = domain.PaymentPaid

	confirmedBooking, err := s.bookingRepo.UpdateBooking(ctx, booking)
	if err != nil {
		s.logger.Error("Failed to confirm booking", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": booking.ID,
		})
		return nil, err
	}

	s.logger.Info("Booking confirmed", map[string]interface{}{
		"booking_id": booking.ID,
		"bike_id":    booking.BikeID,
	})

	return confirmedBooking, nil
}

// AdvanceBooking is the operational hook that moves confirmed bookings to active and active ones to completed.
func (s *BookingService) AdvanceBooking(ctx context.Context, actor *domain.TokenPayload, bookingID string, to domain.BookingStatus) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("advance booking %s: %w", bookingID, domain.ErrForbidden)
	}
	if to != domain.BookingActive && to != domain.BookingCompleted {
		return nil, fmt.Errorf("%w: bookings can only be advanced to %s or %s",
			domain.ErrValidation, domain.BookingActive, domain.BookingCompleted)
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	if err := booking.TransitionTo(to, s.now()); err != nil {
		return nil, err
	}

	updatedBooking, err := s.bookingRepo.UpdateBooking(ctx, booking)
	if err != nil {
		s.logger.Error("Failed to advance booking", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": bookingID,
		})
		return nil, err
	}

	s.logger.Info("Booking advanced", map[string]interface{}{
		"booking_id": bookingID,
		"from":       from,
		"to":         to,
	})

	return updatedBooking, nil
}

// QuoteBooking prices a range for a bike and reports whether it can be booked, without writing anything.
func (s *BookingService) QuoteBooking(ctx context.Context, bikeID string, start, end time.Time) (*domain.Quote, error) {
	bikeUUID, err := parseID(s.logger, "bike", bikeID)
	if err != nil {
		return nil, err
	}

	bike, err := s.bikeRepo.GetBikeByID(ctx, bikeUUID)
	if err != nil {
		return nil, err
	}

	totalDays, totalPrice, err := domain.ComputeTotal(bike.PricePerDay, start, end)
	if err != nil {
		return nil, err
	}

	free, err := s.availability.IsAvailable(ctx, bike.ID, start, end)
	if err != nil {
		return nil, err
	}

	return &domain.Quote{
		Available:  bike.Availability && free,
		TotalDays:  totalDays,
		TotalPrice: totalPrice,
	}, nil
}

func (s *BookingService) GetBookingStats(ctx context.Context) ([]domain.BookingStatusStats, error) {
	stats, err := s.bookingRepo.GetBookingStats(ctx)
	if err != nil {
		s.logger.Error("Failed to get booking stats", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return stats, nil
}

func (s *BookingService) load(ctx context.Context, bookingID string) (*domain.Booking, error) {
	bookingUUID, err := parseID(s.logger, "booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetBookingByID(ctx, bookingUUID)
	if err != nil {
		s.logger.Error("Failed to get booking", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": bookingID,
		})
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) cancel(ctx context.Context, booking *domain.Booking, reason string) (*domain.Booking, error) {
	if err := booking.TransitionTo(domain.BookingCancelled, s.now()); err != nil {
		return nil, err
	}
	booking.CancellationReason = reason
	if err := validateStruct(s.validate, s.logger, "Booking", booking); err != nil {
		return nil, err
	}

	cancelledBooking, err := s.bookingRepo.UpdateBooking(ctx, booking)
	if err != nil {
		s.logger.Error("Failed to cancel booking", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": booking.ID,
		})
		return nil, err
	}

	s.logger.Info("Booking cancelled", map[string]interface{}{
		"booking_id":     booking.ID,
		"payment_status": booking.PaymentStatus,
		"reason":         reason,
	})

	return cancelledBooking, nil
}

func (s *BookingService) refund(ctx context.Context, booking *domain.Booking) error {
	if err := s.payments.Refund(ctx, booking.PaymentIntentID); err != nil {
		s.logger.Error("Failed to refund booking payment", map[string]interface{}{
			"error":      err.Error(),
			"booking_id": booking.ID,
			"intent_id":  booking.PaymentIntentID,
		})
		return fmt.Errorf("refund booking %s: %w: %v", booking.ID, domain.ErrPaymentFailed, err)
	}
	booking.PaymentStatus = domain.PaymentRefunded
	return nil
}

func (s *BookingService) lock(ctx context.Context, bikeID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	release, err := s.locker.Acquire(ctx, fmt.Sprintf("booking-lock:bike:%s", bikeID), s.lockTTL)
	if err != nil {
		if errors.Is(err, ports.ErrLockHeld) {
			return nil, fmt.Errorf("bike %s is being booked by another request: %w", bikeID, domain.ErrConflict)
		}
		return nil, fmt.Errorf("acquire booking lock for bike %s: %w", bikeID, err)
	}
	return release, nil
}

func (s *BookingService) forbidden(actor *domain.TokenPayload, booking *domain.Booking) error {
	fields := map[string]interface{}{
		"booking_id": booking.ID,
		"owner_id":   booking.UserID,
	}
	if actor != nil {
		fields["user_id"] = actor.UserID
	}
	s.logger.Warn("Access denied to booking", fields)
	return fmt.Errorf("booking %s: %w", booking.ID, domain.ErrForbidden)
}
