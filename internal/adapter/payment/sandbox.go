package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
)

type sandboxIntent struct {
	intent   domain.PaymentIntent
	amount   int64
	refunded bool
}

// SandboxGateway settles every intent immediately. It stands in for Stripe in development and tests.
type SandboxGateway struct {
	mu      sync.Mutex
	intents map[string]*sandboxIntent
	// AutoSucceed marks new intents as succeeded; when false they wait for Succeed.
	AutoSucceed bool
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{intents: make(map[string]*sandboxIntent), AutoSucceed: true}
}

func (g *SandboxGateway) CreatePaymentIntent(_ context.Context, req domain.PaymentRequest) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	amount := domain.MinorUnits(req.Amount)
	if amount <= 0 {
		return nil, fmt.Errorf("sandbox: amount must be positive, got %d", amount)
	}

	id := "pi_sandbox_" + uuid.NewString()
	status := domain.IntentRequiresPayment
	if g.AutoSucceed {
		status = domain.IntentSucceeded
	}
	si := &sandboxIntent{
		intent: domain.PaymentIntent{
			ID:           id,
			ClientSecret: id + "_secret",
			Status:       status,
			Amount:       amount,
		},
		amount: amount,
	}
	g.intents[id] = si

	out := si.intent
	return &out, nil
}

func (g *SandboxGateway) GetPaymentIntent(_ context.Context, intentID string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	si, ok := g.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("sandbox: no such payment intent %s", intentID)
	}
	out := si.intent
	return &out, nil
}

func (g *SandboxGateway) Refund(_ context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	si, ok := g.intents[intentID]
	if !ok {
		return fmt.Errorf("sandbox: no such payment intent %s", intentID)
	}
	if si.intent.Status != domain.IntentSucceeded {
		return fmt.Errorf("sandbox: intent %s is %s, nothing to refund", intentID, si.intent.Status)
	}
	if si.refunded {
		return fmt.Errorf("sandbox: intent %s already refunded", intentID)
	}
	si.refunded = true
	return nil
}

// Succeed settles a pending intent.
func (g *SandboxGateway) Succeed(intentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if si, ok := g.intents[intentID]; ok {
		si.intent.Status = domain.IntentSucceeded
	}
}

func (g *SandboxGateway) Refunded(intentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	si, ok := g.intents[intentID]
	return ok && si.refunded
}

func (g *SandboxGateway) Amount(intentID string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if si, ok := g.intents[intentID]; ok {
		return si.amount
	}
	return 0
}
