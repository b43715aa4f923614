package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentIntentStatus string

const (
	IntentRequiresPayment PaymentIntentStatus = "requires_payment_method"
	IntentProcessing      PaymentIntentStatus = "processing"
	IntentSucceeded       PaymentIntentStatus = "succeeded"
	IntentCanceled        PaymentIntentStatus = "canceled"
)

type PaymentRequest struct {
	BookingID uuid.UUID
	BikeID    uuid.UUID
	Amount    decimal.Decimal
}

// PaymentIntent.Amount is in minor units.
type PaymentIntent struct {
	ID           string              `json:"id"`
	ClientSecret string              `json:"clientSecret"`
	Status       PaymentIntentStatus `json:"status"`
	Amount       int64               `json:"amount"`
}

var hundred = decimal.NewFromInt(100)

// MinorUnits converts an amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
