package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGateway = errors.New("gateway down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(2, 30*time.Second, time.Minute)
	b.now = clock.now

	fail := func() error { return errGateway }

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(fail), errGateway)
	}
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(0, 30*time.Second, time.Minute)
	b.now = clock.now

	require.Error(t, b.Execute(func() error { return errGateway }))
	require.Equal(t, StateOpen, b.State())

	clock.t = clock.t.Add(31 * time.Second)
	require.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(0, 30*time.Second, time.Minute)
	b.now = clock.now

	require.Error(t, b.Execute(func() error { return errGateway }))
	clock.t = clock.t.Add(time.Minute)

	require.Error(t, b.Execute(func() error { return errGateway }))
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerForgetsOldFailures(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(1, 30*time.Second, time.Minute)
	b.now = clock.now

	require.Error(t, b.Execute(func() error { return errGateway }))
	clock.t = clock.t.Add(2 * time.Minute)
	require.Error(t, b.Execute(func() error { return errGateway }))

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenAdmitsOneCall(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(0, 30*time.Second, time.Minute)
	b.now = clock.now

	require.Error(t, b.Execute(func() error { return errGateway }))
	clock.t = clock.t.Add(31 * time.Second)

	started := make(chan struct{})
	proceed := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(func() error {
			close(started)
			<-proceed
			return nil
		})
	}()
	<-started

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)
	assert.Equal(t, StateHalfOpen, b.State())

	close(proceed)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Execute(func() error { return nil }))
}

func TestSandboxGatewayLifecycle(t *testing.T) {
	ctx := context.Background()
	g := NewSandboxGateway()
	g.AutoSucceed = false

	intent, err := g.CreatePaymentIntent(ctx, domain.PaymentRequest{
		BookingID: uuid.New(),
		BikeID:    uuid.New(),
		Amount:    decimal.NewFromInt(150),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentRequiresPayment, intent.Status)
	assert.Equal(t, int64(15000), intent.Amount)
	assert.Equal(t, int64(15000), g.Amount(intent.ID))

	assert.Error(t, g.Refund(ctx, intent.ID))

	g.Succeed(intent.ID)
	got, err := g.GetPaymentIntent(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentSucceeded, got.Status)

	require.NoError(t, g.Refund(ctx, intent.ID))
	assert.True(t, g.Refunded(intent.ID))
	assert.Error(t, g.Refund(ctx, intent.ID))
}
