package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner is a landlord listing accommodations.  Deleting an owner removes
// their accommodations.
type Owner struct {
	ID    uint64 // owners.id
	Name  string // owners.name
	Email string // owners.email (unique)
}

// Amenity is a feature such as "WiFi" that accommodations can offer.
type Amenity struct {
	ID   uint64 // amenities.id
	Name string // amenities.name (unique)
}

// Accommodation is a listed property.  Discount is populated by the
// repository when FestivalDiscountID is set; the discounted price is
// always derived, never stored.
type Accommodation struct {
	ID                 uint64            // accommodations.id
	Title              string            // accommodations.title
	City               string            // accommodations.city
	PricePerMonth      decimal.Decimal   // accommodations.price_per_month
	Address            string            // accommodations.address
	Description        string            // accommodations.description
	ImageURL           *string           // accommodations.image_url (nullable)
	OwnerID            *uint64           // accommodations.owner_id (nullable)
	FestivalDiscountID *uint64           // accommodations.festival_discount_id (nullable)
	Discount           *FestivalDiscount // joined discount, nil when unset
	Amenities          []Amenity         // joined amenities, may be empty
	CreatedAt          time.Time         // accommodations.created_at
	UpdatedAt          time.Time         // accommodations.updated_at
}

// Room statuses.
const (
	RoomAvailable = "Available"
	RoomBooked    = "Booked"
)

// Room is a bookable unit inside an accommodation.
type Room struct {
	ID              uint64 // rooms.id
	AccommodationID uint64 // rooms.accommodation_id
	RoomNumber      string // rooms.room_number
	Status          string // rooms.status (Available, Booked)
}

// Student is the booking profile bound one-to-one to a user.
type Student struct {
	ID     uint64  // students.id
	UserID uint64  // students.user_id (unique)
	Email  *string // students.email (nullable)
}
