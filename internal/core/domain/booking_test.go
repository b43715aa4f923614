package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onDay(n int) time.Time {
	return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		s1, e1   time.Time
		s2, e2   time.Time
		expected bool
	}{
		{"end touches start", onDay(1), onDay(10), onDay(10), onDay(12), false},
		{"start touches end", onDay(10), onDay(12), onDay(1), onDay(10), false},
		{"disjoint", onDay(1), onDay(3), onDay(5), onDay(7), false},
		{"partial overlap", onDay(1), onDay(5), onDay(4), onDay(8), true},
		{"contained", onDay(1), onDay(10), onDay(3), onDay(4), true},
		{"containing", onDay(3), onDay(4), onDay(1), onDay(10), true},
		{"identical", onDay(2), onDay(4), onDay(2), onDay(4), true},
		{"one hour overlap", onDay(1), onDay(2).Add(time.Hour), onDay(2), onDay(3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
			assert.Equal(t, tt.expected, Overlaps(tt.s2, tt.e2, tt.s1, tt.e1))
		})
	}
}

func TestBookingTransitions(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingActive, false},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingActive, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingCompleted, false},
		{BookingActive, BookingCompleted, true},
		{BookingActive, BookingCancelled, true},
		{BookingCompleted, BookingCancelled, false},
		{BookingCancelled, BookingCancelled, false},
		{BookingCancelled, BookingPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			b := &Booking{Status: tt.from}
			assert.Equal(t, tt.allowed, b.CanTransition(tt.to))
		})
	}
}

func TestTransitionToStampsTimes(t *testing.T) {
	now := time.Date(2026, 6, 5, 12, 0, 0, 0, time.UTC)

	b := &Booking{Status: BookingActive}
	require.NoError(t, b.TransitionTo(BookingCompleted, now))
	assert.Equal(t, BookingCompleted, b.Status)
	require.NotNil(t, b.CompletedAt)
	assert.Equal(t, now, *b.CompletedAt)

	err := b.TransitionTo(BookingCancelled, now)
	assert.True(t, errors.Is(err, ErrIllegalTransition))
	assert.Nil(t, b.CancelledAt)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, BookingCompleted.Terminal())
	assert.True(t, BookingCancelled.Terminal())
	assert.False(t, BookingActive.Terminal())
	assert.True(t, BookingConfirmed.Blocking())
	assert.False(t, BookingPending.Blocking())
	assert.False(t, BookingStatus("returned").Valid())
}
