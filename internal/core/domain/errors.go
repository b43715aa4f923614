package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal booking transition")
	ErrUnavailable       = errors.New("bike is not available")
	ErrInvalidRange      = errors.New("invalid date range")
	ErrDuplicateReview   = errors.New("booking already reviewed")
	ErrForbidden         = errors.New("access denied")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation error")
	ErrPaymentFailed     = errors.New("payment failed")
)

func NotFound(entity string, id fmt.Stringer) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}
