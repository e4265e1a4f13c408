package handler

import (
	"time"

	"github.com/studentacc/accommodation-booking/internal/model"
	"github.com/studentacc/accommodation-booking/internal/pricing"
	"github.com/studentacc/accommodation-booking/internal/repository"
	"github.com/studentacc/accommodation-booking/internal/service"
)

// Money is always rendered as a two-decimal string.

type priceDTO struct {
	Original        string `json:"original_price"`
	DiscountAmount  string `json:"discount_amount"`
	Final           string `json:"final_price"`
	DiscountPercent string `json:"discount_percent,omitempty"`
	Festival        string `json:"festival,omitempty"`
}

func toPrice(b pricing.Breakdown) priceDTO {
	p := priceDTO{
		Original:       pricing.Money(b.Original),
		DiscountAmount: pricing.Money(b.DiscountAmount),
		Final:          pricing.Money(b.Final),
	}
	if b.Discounted() {
		p.DiscountPercent = pricing.Money(b.Percent)
		p.Festival = b.FestivalName
	}
	return p
}

type amenityDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type accommodationDTO struct {
	ID          uint64       `json:"id"`
	Title       string       `json:"title"`
	City        string       `json:"city"`
	Address     string       `json:"address"`
	Description string       `json:"description"`
	ImageURL    *string      `json:"image_url"`
	Amenities   []amenityDTO `json:"amenities,omitempty"`
	Price       priceDTO     `json:"price"`
}

func toAccommodation(a service.PricedAccommodation) accommodationDTO {
	d := accommodationDTO{
		ID:          a.ID,
		Title:       a.Title,
		City:        a.City,
		Address:     a.Address,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Price:       toPrice(a.Price),
	}
	for _, m := range a.Amenities {
		d.Amenities = append(d.Amenities, amenityDTO{ID: m.ID, Name: m.Name})
	}
	return d
}

type roomDTO struct {
	ID              uint64 `json:"id"`
	AccommodationID uint64 `json:"accommodation_id"`
	RoomNumber      string `json:"room_number"`
	Status          string `json:"status"`
}

func toRoom(r model.Room) roomDTO {
	return roomDTO{ID: r.ID, AccommodationID: r.AccommodationID, RoomNumber: r.RoomNumber, Status: r.Status}
}

type roomListingDTO struct {
	roomDTO
	Accommodation accommodationDTO `json:"accommodation"`
}

type accommodationDetailDTO struct {
	accommodationDTO
	Rooms          []roomDTO `json:"rooms"`
	AvailableRooms int       `json:"available_rooms"`
}

type bookingDTO struct {
	ID              uint64    `json:"id"`
	RoomID          uint64    `json:"room_id"`
	RoomNumber      string    `json:"room_number"`
	AccommodationID uint64    `json:"accommodation_id"`
	Accommodation   string    `json:"accommodation"`
	City            string    `json:"city,omitempty"`
	DateBooked      time.Time `json:"date_booked"`
	OriginalPrice   string    `json:"original_price"`
	DiscountApplied string    `json:"discount_applied"`
	FinalPrice      string    `json:"final_price"`
}

func bookingFromResult(r *service.BookingResult) bookingDTO {
	return bookingDTO{
		ID:              r.Booking.ID,
		RoomID:          r.Room.ID,
		RoomNumber:      r.Room.RoomNumber,
		AccommodationID: r.Accommodation.ID,
		Accommodation:   r.Accommodation.Title,
		City:            r.Accommodation.City,
		DateBooked:      r.Booking.DateBooked,
		OriginalPrice:   pricing.Money(r.Booking.OriginalPrice),
		DiscountApplied: pricing.Money(r.Booking.DiscountApplied),
		FinalPrice:      pricing.Money(r.Booking.FinalPrice),
	}
}

func bookingFromDetail(d repository.BookingDetail) bookingDTO {
	return bookingDTO{
		ID:              d.ID,
		RoomID:          d.RoomID,
		RoomNumber:      d.RoomNumber,
		AccommodationID: d.AccommodationID,
		Accommodation:   d.AccommodationTitle,
		City:            d.City,
		DateBooked:      d.DateBooked,
		OriginalPrice:   pricing.Money(d.OriginalPrice),
		DiscountApplied: pricing.Money(d.DiscountApplied),
		FinalPrice:      pricing.Money(d.FinalPrice),
	}
}
