package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FestivalDiscount is a named, time-bounded percentage markdown that an
// accommodation may reference.  StartDate and EndDate are calendar dates
// (midnight UTC) and both ends of the window are inclusive.
type FestivalDiscount struct {
	ID         uint64          // festival_discounts.id
	Name       string          // festival_discounts.name
	Percentage decimal.Decimal // festival_discounts.percentage, 0..100
	StartDate  time.Time       // festival_discounts.start_date
	EndDate    time.Time       // festival_discounts.end_date
	Enabled    bool            // festival_discounts.active
}

// IsActive reports whether the discount applies on the given day: it must
// be enabled and today must fall within [StartDate, EndDate].  Only the
// calendar date of each value is compared.
func (d FestivalDiscount) IsActive(today time.Time) bool {
	if !d.Enabled {
		return false
	}
	day := DateOf(today)
	return !day.Before(DateOf(d.StartDate)) && !day.After(DateOf(d.EndDate))
}

// DateOf truncates t to midnight UTC of its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
