// Package service holds the booking workflow and the priced catalog
// views.  It depends on small store interfaces so the workflow can be
// exercised without MySQL.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/model"
	"github.com/studentacc/accommodation-booking/internal/notify"
	"github.com/studentacc/accommodation-booking/internal/pricing"
	"github.com/studentacc/accommodation-booking/internal/queue"
	"github.com/studentacc/accommodation-booking/internal/repository"
)

// Errors callers are expected to map to responses.
var (
	ErrNotFound        = errors.New("not found")
	ErrNoRoomAvailable = errors.New("no rooms available for this accommodation")
	ErrForbidden       = errors.New("forbidden")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID uint64
	Email  string
	Role   string
}

type AccommodationReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Accommodation, error)
}

type StudentStore interface {
	EnsureForUser(ctx context.Context, userID uint64, email string) (*model.Student, error)
	GetByUserID(ctx context.Context, userID uint64) (*model.Student, error)
}

type BookingStore interface {
	ClaimAndCreate(ctx context.Context, accommodationID uint64, b *model.Booking) (*model.Room, error)
	DeleteForStudent(ctx context.Context, bookingID, studentID uint64) (uint64, error)
	ListByStudent(ctx context.Context, studentID uint64) ([]repository.BookingDetail, error)
}

// Notifier delivers the side effects of a booking.  Every method is best
// effort from the service's point of view.
type Notifier interface {
	Enqueue(ctx context.Context, s queue.BookingSnapshot) error
	Alert(ctx context.Context, subject, body string) error
	NotifyStudent(ctx context.Context, address, subject, html string) error
}

// BookingResult describes a committed booking.
type BookingResult struct {
	Booking       model.Booking
	Room          model.Room
	Accommodation model.Accommodation
	Price         pricing.Breakdown
}

type BookingService struct {
	accommodations AccommodationReader
	students       StudentStore
	bookings       BookingStore
	notifier       Notifier
	log            *logrus.Logger
	now            func() time.Time
}

func NewBookingService(a AccommodationReader, s StudentStore, b BookingStore, n Notifier, log *logrus.Logger) *BookingService {
	return &BookingService{accommodations: a, students: s, bookings: b, notifier: n, log: log, now: time.Now}
}

// WithClock replaces the time source.  "Today" for discount checks and
// the booking timestamp both come from it.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// Book claims the first available room of an accommodation for the
// caller and records the price the caller pays today.  Notifications are
// sent after the booking commits; their failures are logged and never
// change the outcome.
func (s *BookingService) Book(ctx context.Context, accommodationID uint64, who Identity) (*BookingResult, error) {
	now := s.now().UTC()
	log := s.log.WithFields(logrus.Fields{"accommodation_id": accommodationID, "user_id": who.UserID})

	acc, err := s.accommodations.GetByID(ctx, accommodationID)
	if err != nil {
		if errors.Is(err, repository.ErrAccommodationNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load accommodation: %w", err)
	}
	student, err := s.students.EnsureForUser(ctx, who.UserID, who.Email)
	if err != nil {
		return nil, fmt.Errorf("ensure student: %w", err)
	}
	price, err := pricing.Quote(acc.PricePerMonth, acc.Discount, now)
	if err != nil {
		log.WithError(err).Warn("ignoring invalid festival discount")
	}

	b := &model.Booking{
		StudentID:       student.ID,
		DateBooked:      now,
		OriginalPrice:   price.Original,
		DiscountApplied: price.DiscountAmount,
		FinalPrice:      price.Final,
	}
	room, err := s.bookings.ClaimAndCreate(ctx, acc.ID, b)
	if err != nil {
		if errors.Is(err, repository.ErrNoRoomAvailable) {
			return nil, ErrNoRoomAvailable
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	log.WithFields(logrus.Fields{"booking_id": b.ID, "room_id": room.ID, "final_price": pricing.Money(b.FinalPrice)}).
		Info("booking created")

	res := &BookingResult{Booking: *b, Room: *room, Accommodation: *acc, Price: price}
	address := who.Email
	if address == "" && student.Email != nil {
		address = *student.Email
	}
	s.notify(context.WithoutCancel(ctx), res, address)
	return res, nil
}

func (s *BookingService) notify(ctx context.Context, r *BookingResult, address string) {
	snap := queue.BookingSnapshot{
		BookingID:       r.Booking.ID,
		Student:         address,
		RoomNumber:      r.Room.RoomNumber,
		Accommodation:   r.Accommodation.Title,
		DateBooked:      r.Booking.DateBooked.Format(time.RFC3339),
		OriginalPrice:   pricing.Money(r.Booking.OriginalPrice),
		DiscountApplied: pricing.Money(r.Booking.DiscountApplied),
		FinalPrice:      pricing.Money(r.Booking.FinalPrice),
	}
	s.deliver("queue", r.Booking.ID, func() error {
		return s.notifier.Enqueue(ctx, snap)
	})
	s.deliver("alert", r.Booking.ID, func() error {
		return s.notifier.Alert(ctx,
			"New booking: "+r.Accommodation.Title,
			fmt.Sprintf("Room %s at %s was booked by %s for %s (discount %s).",
				snap.RoomNumber, snap.Accommodation, address, snap.FinalPrice, snap.DiscountApplied))
	})
	s.deliver("email", r.Booking.ID, func() error {
		return s.notifier.NotifyStudent(ctx, address, "Booking confirmed", confirmationHTML(snap))
	})
}

// deliver runs one notification and contains whatever goes wrong in it.
func (s *BookingService) deliver(channel string, bookingID uint64, send func() error) {
	log := s.log.WithFields(logrus.Fields{"channel": channel, "booking_id": bookingID})
	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", p).Error("notification panicked")
		}
	}()
	if err := send(); err != nil {
		if errors.Is(err, notify.ErrChannelDisabled) {
			log.Debug("notification channel disabled")
			return
		}
		log.WithError(err).Warn("notification failed")
	}
}

func confirmationHTML(s queue.BookingSnapshot) string {
	return fmt.Sprintf(`<h2>Your booking is confirmed</h2>
<p>Accommodation: <strong>%s</strong></p>
<p>Room: %s</p>
<p>Original price: %s<br>Discount: %s<br>Final price: <strong>%s</strong></p>
<p>Booked on %s.</p>`,
		html.EscapeString(s.Accommodation), html.EscapeString(s.RoomNumber),
		s.OriginalPrice, s.DiscountApplied, s.FinalPrice, s.DateBooked)
}

// Cancel deletes one of the caller's bookings and frees its room.
func (s *BookingService) Cancel(ctx context.Context, bookingID uint64, who Identity) error {
	student, err := s.students.GetByUserID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("load student: %w", err)
	}
	roomID, err := s.bookings.DeleteForStudent(ctx, bookingID, student.ID)
	switch {
	case errors.Is(err, repository.ErrBookingNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrForbidden):
		return ErrForbidden
	case err != nil:
		return fmt.Errorf("cancel booking: %w", err)
	}
	s.log.WithFields(logrus.Fields{"booking_id": bookingID, "room_id": roomID, "user_id": who.UserID}).
		Info("booking cancelled")
	return nil
}

// ListMine returns the caller's bookings, newest first.  A caller who has
// never booked gets an empty list.
func (s *BookingService) ListMine(ctx context.Context, who Identity) ([]repository.BookingDetail, error) {
	student, err := s.students.GetByUserID(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []repository.BookingDetail{}, nil
		}
		return nil, err
	}
	return s.bookings.ListByStudent(ctx, student.ID)
}
