// Package pricing computes festival-discounted prices.  Amounts are
// decimal.Decimal values with currency granularity of two places.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/studentacc/accommodation-booking/internal/model"
)

// ErrInvalidDiscount is returned alongside the unchanged amount when a
// percentage falls outside [0,100].
var ErrInvalidDiscount = errors.New("discount percentage must be between 0 and 100")

var hundred = decimal.NewFromInt(100)

// ApplyDiscount returns amount reduced by percent, rounded half-up to two
// decimal places.  An out-of-range percent yields the original amount and
// ErrInvalidDiscount so callers can log it and carry on with full price.
func ApplyDiscount(amount, percent decimal.Decimal) (decimal.Decimal, error) {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return amount, fmt.Errorf("%w: got %s", ErrInvalidDiscount, percent)
	}
	cut := amount.Mul(percent).Div(hundred)
	// Round is half away from zero, which is half-up for non-negative prices.
	return amount.Sub(cut).Round(2), nil
}

// Breakdown is the price split shown to students and frozen onto bookings.
type Breakdown struct {
	Original       decimal.Decimal
	DiscountAmount decimal.Decimal
	Final          decimal.Decimal
	Percent        decimal.Decimal // zero when no discount applied
	FestivalName   string          // empty when no discount applied
}

// Discounted reports whether any markdown was taken off.
func (b Breakdown) Discounted() bool { return b.DiscountAmount.IsPositive() }

// Quote derives the breakdown for price under discount on the given day.
// A nil, disabled or out-of-window discount leaves the price untouched.
// The returned error is non-nil only for an invalid percentage, in which
// case the breakdown is the undiscounted one.
func Quote(price decimal.Decimal, discount *model.FestivalDiscount, today time.Time) (Breakdown, error) {
	b := Breakdown{Original: price, DiscountAmount: decimal.Zero, Final: price, Percent: decimal.Zero}
	if discount == nil || !discount.IsActive(today) {
		return b, nil
	}
	final, err := ApplyDiscount(price, discount.Percentage)
	if err != nil {
		return b, err
	}
	b.Final = final
	b.DiscountAmount = price.Sub(final)
	b.Percent = discount.Percentage
	b.FestivalName = discount.Name
	return b, nil
}

// Money formats an amount with exactly two decimals.
func Money(d decimal.Decimal) string { return d.StringFixed(2) }
