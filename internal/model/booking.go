package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking links a student to a room and freezes the price breakdown at
// the moment of booking.  The three price fields are written once by the
// booking transaction and never recomputed, even if the accommodation's
// discount later changes.
//
// Fields:
//
//	ID              – primary key identifier.
//	StudentID       – student who booked.
//	RoomID          – room claimed by the booking.
//	DateBooked      – creation timestamp (UTC).
//	OriginalPrice   – accommodation price when booked.
//	DiscountApplied – amount taken off by the active festival discount.
//	FinalPrice      – OriginalPrice minus DiscountApplied.
type Booking struct {
	ID              uint64          // bookings.id
	StudentID       uint64          // bookings.student_id
	RoomID          uint64          // bookings.room_id
	DateBooked      time.Time       // bookings.date_booked
	OriginalPrice   decimal.Decimal // bookings.original_price
	DiscountApplied decimal.Decimal // bookings.discount_applied
	FinalPrice      decimal.Decimal // bookings.final_price
}
