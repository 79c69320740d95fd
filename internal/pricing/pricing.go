// Package pricing derives ticket prices from a flight's base fare and
// aggregates them into booking totals.
package pricing

import (
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/shopspring/decimal"
)

// Precision is the number of fractional currency digits.
const Precision = 2

var multipliers = map[domain.SeatClass]decimal.Decimal{
	domain.SeatClassEconomy:  decimal.RequireFromString("1.0"),
	domain.SeatClassBusiness: decimal.RequireFromString("2.5"),
	domain.SeatClassFirst:    decimal.RequireFromString("4.0"),
}

func Multiplier(class domain.SeatClass) (decimal.Decimal, error) {
	m, ok := multipliers[class]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown seat class %q", domain.ErrInvalidInput, class)
	}
	return m, nil
}

// TicketPrice returns basePrice × multiplier(class) rounded half-up to
// currency precision.
func TicketPrice(basePrice decimal.Decimal, class domain.SeatClass) (decimal.Decimal, error) {
	if !basePrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: base price must be positive, got %s", domain.ErrInvalidInput, basePrice)
	}
	m, err := Multiplier(class)
	if err != nil {
		return decimal.Zero, err
	}
	return Round(basePrice.Mul(m)), nil
}

// BookingTotal sums ticket prices. Each price is rounded before it is
// added so the total always equals the sum of the displayed ticket prices.
func BookingTotal(prices []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range prices {
		total = total.Add(Round(p))
	}
	return total
}

// Round rounds half away from zero, which is half-up for the non-negative
// amounts handled here.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}
