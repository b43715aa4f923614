package ports

import (
	"context"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
)

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*domain.PaymentIntent, error)
	Refund(ctx context.Context, intentID string) error
}
