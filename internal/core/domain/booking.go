package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// BlockingStatuses are the statuses that hold a bike for their date range.
var BlockingStatuses = []BookingStatus{BookingConfirmed, BookingActive}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingActive, BookingCancelled},
	BookingActive:    {BookingCompleted, BookingCancelled},
}

type Booking struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"user"`
	BikeID             uuid.UUID       `json:"bike"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            time.Time       `json:"endDate"`
	TotalDays          int             `json:"totalDays" validate:"min=1"`
	TotalPrice         decimal.Decimal `json:"totalPrice"`
	Status             BookingStatus   `json:"status"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus"`
	PaymentIntentID    string          `json:"paymentIntentId"`
	PickupLocation     Location        `json:"pickupLocation"`
	SpecialRequests    string          `json:"specialRequests,omitempty" validate:"max=500"`
	CancellationReason string          `json:"cancellationReason,omitempty" validate:"max=500"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

func (s BookingStatus) Blocking() bool {
	return s == BookingConfirmed || s == BookingActive
}

// CanTransition reports whether the lifecycle allows moving from the current status to next.
func (b *Booking) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[b.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the booking to next, stamping completedAt/cancelledAt.
func (b *Booking) TransitionTo(next BookingStatus, at time.Time) error {
	if !b.CanTransition(next) {
		return fmt.Errorf("booking %s: %s -> %s: %w", b.ID, b.Status, next, ErrIllegalTransition)
	}
	b.Status = next
	switch next {
	case BookingCompleted:
		b.CompletedAt = &at
	case BookingCancelled:
		b.CancelledAt = &at
	}
	b.UpdatedAt = at
	return nil
}

// Overlaps reports whether the booking's range intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return Overlaps(b.StartDate, b.EndDate, start, end)
}

// Overlaps treats both ranges as half-open, so [s1,e1) and [e1,e2) do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

type BookingRequest struct {
	BikeID          uuid.UUID `validate:"required"`
	StartDate       time.Time `validate:"required"`
	EndDate         time.Time `validate:"required"`
	SpecialRequests string    `validate:"max=500"`
}

type BookingFilter struct {
	UserID *uuid.UUID
	BikeID *uuid.UUID
	Status BookingStatus
}

type BookingStatusStats struct {
	Status       BookingStatus   `json:"status"`
	Count        int64           `json:"count"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

type Quote struct {
	Available  bool            `json:"available"`
	TotalDays  int             `json:"totalDays"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}
