package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/model"
	"github.com/studentacc/accommodation-booking/internal/pricing"
	"github.com/studentacc/accommodation-booking/internal/repository"
)

type CatalogAccommodations interface {
	GetByID(ctx context.Context, id uint64) (*model.Accommodation, error)
	Search(ctx context.Context, q repository.SearchQuery) ([]model.Accommodation, int64, error)
}

type CatalogRooms interface {
	ListByAccommodation(ctx context.Context, accommodationID uint64) ([]model.Room, error)
	ListWithAccommodation(ctx context.Context) ([]repository.RoomListing, error)
}

// PricedAccommodation is an accommodation with today's price.
type PricedAccommodation struct {
	model.Accommodation
	Price pricing.Breakdown
}

// RoomView is one row of the room list.
type RoomView struct {
	Room          model.Room
	Accommodation PricedAccommodation
}

// AccommodationDetail adds the rooms and their availability.
type AccommodationDetail struct {
	PricedAccommodation
	Rooms     []model.Room
	Available int
}

// SearchParams are the public search filters.
type SearchParams struct {
	Text     string
	City     string
	MaxPrice *decimal.Decimal
	Page     int
	PageSize int
}

type SearchPage struct {
	Items    []PricedAccommodation
	Total    int64
	Page     int
	PageSize int
}

// CatalogService produces the read-only views students browse.  Prices
// are derived on every call from the stored price and discount.
type CatalogService struct {
	accommodations CatalogAccommodations
	rooms          CatalogRooms
	log            *logrus.Logger
	now            func() time.Time
}

func NewCatalogService(a CatalogAccommodations, r CatalogRooms, log *logrus.Logger) *CatalogService {
	return &CatalogService{accommodations: a, rooms: r, log: log, now: time.Now}
}

func (s *CatalogService) WithClock(now func() time.Time) *CatalogService {
	s.now = now
	return s
}

func (s *CatalogService) price(a model.Accommodation, today time.Time) PricedAccommodation {
	b, err := pricing.Quote(a.PricePerMonth, a.Discount, today)
	if err != nil {
		s.log.WithError(err).WithField("accommodation_id", a.ID).Warn("ignoring invalid festival discount")
	}
	return PricedAccommodation{Accommodation: a, Price: b}
}

// ListRooms returns every room with its accommodation's current price.
func (s *CatalogService) ListRooms(ctx context.Context) ([]RoomView, error) {
	rows, err := s.rooms.ListWithAccommodation(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now().UTC()
	out := make([]RoomView, 0, len(rows))
	for _, r := range rows {
		out = append(out, RoomView{Room: r.Room, Accommodation: s.price(r.Accommodation, today)})
	}
	return out, nil
}

// GetAccommodation returns one accommodation with rooms and amenities.
func (s *CatalogService) GetAccommodation(ctx context.Context, id uint64) (*AccommodationDetail, error) {
	a, err := s.accommodations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccommodationNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rooms, err := s.rooms.ListByAccommodation(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &AccommodationDetail{PricedAccommodation: s.price(*a, s.now().UTC()), Rooms: rooms}
	for _, r := range rooms {
		if r.Status == model.RoomAvailable {
			d.Available++
		}
	}
	return d, nil
}

// Search pages through accommodations.  Page defaults to 1 and PageSize
// to 20, capped at 100.
func (s *CatalogService) Search(ctx context.Context, p SearchParams) (*SearchPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	today := s.now().UTC()
	list, total, err := s.accommodations.Search(ctx, repository.SearchQuery{
		Text:     p.Text,
		City:     p.City,
		MaxPrice: p.MaxPrice,
		Today:    today,
		Page:     p.Page,
		PageSize: p.PageSize,
	})
	if err != nil {
		return nil, err
	}
	page := &SearchPage{Items: make([]PricedAccommodation, 0, len(list)), Total: total, Page: p.Page, PageSize: p.PageSize}
	for _, a := range list {
		page.Items = append(page.Items, s.price(a, today))
	}
	return page, nil
}
