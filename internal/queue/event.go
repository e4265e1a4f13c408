// Package queue defines the booking snapshot exchanged over the message
// broker and the consumer that records it.
package queue

import (
	"encoding/json"
	"fmt"
)

// BookingSnapshot is published after a booking commits.  It carries
// enough information for downstream consumers to log or notify without
// querying the primary database.  Prices are fixed two-decimal strings.
type BookingSnapshot struct {
	BookingID       uint64 `json:"booking_id"`
	Student         string `json:"student"`
	RoomNumber      string `json:"room_number"`
	Accommodation   string `json:"accommodation"`
	DateBooked      string `json:"date_booked"`
	OriginalPrice   string `json:"original_price"`
	DiscountApplied string `json:"discount_applied"`
	FinalPrice      string `json:"final_price"`
}

// DecodeSnapshot parses a message body.  A snapshot without a booking id
// is rejected.
func DecodeSnapshot(body []byte) (BookingSnapshot, error) {
	var s BookingSnapshot
	if err := json.Unmarshal(body, &s); err != nil {
		return s, fmt.Errorf("unmarshal: %w", err)
	}
	if s.BookingID == 0 {
		return s, fmt.Errorf("snapshot without booking_id")
	}
	return s, nil
}
