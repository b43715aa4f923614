package payment

import (
	"context"
	"fmt"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
)

type StripeGateway struct {
	intents  *paymentintent.Client
	refunds  *refund.Client
	currency string
}

func NewStripeGateway(secretKey, currency string) *StripeGateway {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeGateway{
		intents:  &paymentintent.Client{B: backend, Key: secretKey},
		refunds:  &refund.Client{B: backend, Key: secretKey},
		currency: currency,
	}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(domain.MinorUnits(req.Amount)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("bookingId", req.BookingID.String())
	params.AddMetadata("bikeId", req.BikeID.String())

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) GetPaymentIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.intents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent %s: %w", intentID, err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) Refund(ctx context.Context, intentID string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	params.Context = ctx

	if _, err := g.refunds.New(params); err != nil {
		return fmt.Errorf("stripe refund %s: %w", intentID, err)
	}
	return nil
}

// Stripe status strings match domain.PaymentIntentStatus verbatim.
func toIntent(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       domain.PaymentIntentStatus(pi.Status),
		Amount:       pi.Amount,
	}
}
