package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/model"
	"github.com/studentacc/accommodation-booking/internal/queue"
	"github.com/studentacc/accommodation-booking/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories.  The
// claim holds the mutex for its whole check-and-set, which mirrors the
// single conditional UPDATE used in production.
type memStore struct {
	mu             sync.Mutex
	accommodations map[uint64]*model.Accommodation
	rooms          []*model.Room
	students       map[uint64]*model.Student
	bookings       map[uint64]*model.Booking
	nextID         uint64
	ensureCalls    int
}

func newMemStore() *memStore {
	return &memStore{
		accommodations: map[uint64]*model.Accommodation{},
		students:       map[uint64]*model.Student{},
		bookings:       map[uint64]*model.Booking{},
		nextID:         100,
	}
}

func (m *memStore) id() uint64 { m.nextID++; return m.nextID }

func (m *memStore) addAccommodation(a model.Accommodation, rooms ...string) {
	m.accommodations[a.ID] = &a
	for _, n := range rooms {
		m.rooms = append(m.rooms, &model.Room{ID: m.id(), AccommodationID: a.ID, RoomNumber: n, Status: model.RoomAvailable})
	}
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.Accommodation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accommodations[id]
	if !ok {
		return nil, repository.ErrAccommodationNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) Search(ctx context.Context, q repository.SearchQuery) ([]model.Accommodation, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Accommodation
	for _, a := range m.accommodations {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memStore) ListByAccommodation(ctx context.Context, accommodationID uint64) ([]model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Room{}
	for _, r := range m.rooms {
		if r.AccommodationID == accommodationID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ListWithAccommodation(ctx context.Context) ([]repository.RoomListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.RoomListing
	for _, r := range m.rooms {
		out = append(out, repository.RoomListing{Room: *r, Accommodation: *m.accommodations[r.AccommodationID]})
	}
	return out, nil
}

func (m *memStore) EnsureForUser(ctx context.Context, userID uint64, email string) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureCalls++
	if s, ok := m.students[userID]; ok {
		return s, nil
	}
	s := &model.Student{ID: m.id(), UserID: userID}
	if email != "" {
		s.Email = &email
	}
	m.students[userID] = s
	return s, nil
}

func (m *memStore) GetByUserID(ctx context.Context, userID uint64) (*model.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.students[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) ClaimAndCreate(ctx context.Context, accommodationID uint64, b *model.Booking) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.AccommodationID == accommodationID && r.Status == model.RoomAvailable {
			r.Status = model.RoomBooked
			b.ID = m.id()
			b.RoomID = r.ID
			cp := *b
			m.bookings[b.ID] = &cp
			room := *r
			return &room, nil
		}
	}
	return nil, repository.ErrNoRoomAvailable
}

func (m *memStore) DeleteForStudent(ctx context.Context, bookingID, studentID uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return 0, repository.ErrBookingNotFound
	}
	if b.StudentID != studentID {
		return 0, repository.ErrForbidden
	}
	delete(m.bookings, bookingID)
	for _, r := range m.rooms {
		if r.ID == b.RoomID {
			r.Status = model.RoomAvailable
		}
	}
	return b.RoomID, nil
}

func (m *memStore) ListByStudent(ctx context.Context, studentID uint64) ([]repository.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []repository.BookingDetail{}
	for _, b := range m.bookings {
		if b.StudentID == studentID {
			out = append(out, repository.BookingDetail{Booking: *b})
		}
	}
	return out, nil
}

func (m *memStore) roomStatus(number string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.RoomNumber == number {
			return r.Status
		}
	}
	return ""
}

// recordingNotifier captures every call.  fail makes each call return an
// error; explode makes each call panic.
type recordingNotifier struct {
	mu        sync.Mutex
	snapshots []queue.BookingSnapshot
	alerts    []string
	emails    []string
	fail      bool
	explode   bool
}

func (n *recordingNotifier) outcome() error {
	if n.explode {
		panic("notifier exploded")
	}
	if n.fail {
		return errors.New("downstream unavailable")
	}
	return nil
}

func (n *recordingNotifier) Enqueue(ctx context.Context, s queue.BookingSnapshot) error {
	n.mu.Lock()
	n.snapshots = append(n.snapshots, s)
	n.mu.Unlock()
	return n.outcome()
}

func (n *recordingNotifier) Alert(ctx context.Context, subject, body string) error {
	n.mu.Lock()
	n.alerts = append(n.alerts, subject)
	n.mu.Unlock()
	return n.outcome()
}

func (n *recordingNotifier) NotifyStudent(ctx context.Context, address, subject, html string) error {
	n.mu.Lock()
	n.emails = append(n.emails, address)
	n.mu.Unlock()
	return n.outcome()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
