package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// ComputeTotal bills every started day: 25 hours is two days. The result is at least one day.
func ComputeTotal(pricePerDay decimal.Decimal, start, end time.Time) (int, decimal.Decimal, error) {
	if !end.After(start) {
		return 0, decimal.Zero, fmt.Errorf("end %s not after start %s: %w",
			end.Format(time.RFC3339), start.Format(time.RFC3339), ErrInvalidRange)
	}

	span := end.Sub(start)
	days := int(span / day)
	if span%day != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}

	return days, pricePerDay.Mul(decimal.NewFromInt(int64(days))), nil
}
