package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"
)

var ErrBreakerOpen = errors.New("payment gateway circuit is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// Breaker opens after more than maxFailures errors inside window. After timeout it admits a single
// trial call; every other caller is rejected until that call reports back.
type Breaker struct {
	maxFailures int
	window      time.Duration
	timeout     time.Duration
	failures    []time.Time
	openedAt    time.Time
	state       State
	trialing    bool
	now         func() time.Time
	mu          sync.Mutex
}

func NewBreaker(maxFailures int, timeout, window time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		window:      window,
		timeout:     timeout,
		state:       StateClosed,
		now:         time.Now,
	}
}

func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrBreakerOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.trialing = false
	now := b.now()
	if err != nil {
		b.failures = append(b.failures, now)
		b.trim(now)
		if len(b.failures) > b.maxFailures || b.state == StateHalfOpen {
			b.state = StateOpen
			b.openedAt = now
		}
		return err
	}

	b.trim(now)
	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.failures = b.failures[:0]
	}
	return nil
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.timeout {
			return false
		}
		b.state = StateHalfOpen
		b.failures = b.failures[:0]
	}

	if b.trialing {
		return false
	}
	b.trialing = true
	return true
}

func (b *Breaker) trim(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.failures) && !b.failures[i].After(cutoff) {
		i++
	}
	b.failures = b.failures[i:]
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// BreakerGateway guards every call to the wrapped gateway with one Breaker.
type BreakerGateway struct {
	next    ports.PaymentGateway
	breaker *Breaker
	logger  ports.LoggerPort
}

func NewBreakerGateway(next ports.PaymentGateway, breaker *Breaker, logger ports.LoggerPort) *BreakerGateway {
	return &BreakerGateway{next: next, breaker: breaker, logger: logger}
}

func (g *BreakerGateway) CreatePaymentIntent(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentIntent, error) {
	var intent *domain.PaymentIntent
	err := g.run("create_intent", func() (err error) {
		intent, err = g.next.CreatePaymentIntent(ctx, req)
		return err
	})
	return intent, err
}

func (g *BreakerGateway) GetPaymentIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	var intent *domain.PaymentIntent
	err := g.run("get_intent", func() (err error) {
		intent, err = g.next.GetPaymentIntent(ctx, intentID)
		return err
	})
	return intent, err
}

func (g *BreakerGateway) Refund(ctx context.Context, intentID string) error {
	return g.run("refund", func() error {
		return g.next.Refund(ctx, intentID)
	})
}

func (g *BreakerGateway) run(op string, fn func() error) error {
	err := g.breaker.Execute(fn)
	if errors.Is(err, ErrBreakerOpen) {
		g.logger.Warn("Payment gateway call rejected, circuit open", map[string]interface{}{
			"op": op,
		})
	}
	return err
}
