package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentacc/accommodation-booking/internal/model"
	"github.com/studentacc/accommodation-booking/internal/repository"
)

func catalogFixture() (*CatalogService, *memStore) {
	store := newMemStore()
	store.addAccommodation(model.Accommodation{
		ID: 7, Title: "Maple House", City: "Leeds",
		PricePerMonth: decimal.RequireFromString("450.50"),
		Discount:      festival("15", today.AddDate(0, 0, -1), today.AddDate(0, 0, 1)),
	}, "101", "102")
	store.addAccommodation(model.Accommodation{
		ID: 8, Title: "Oak Court", City: "York", PricePerMonth: decimal.RequireFromString("300.00"),
	}, "1")
	svc := NewCatalogService(store, store, quietLogger()).WithClock(func() time.Time { return today })
	return svc, store
}

func TestListRoomsDerivesPrices(t *testing.T) {
	svc, _ := catalogFixture()

	rooms, err := svc.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "382.93", rooms[0].Accommodation.Price.Final.StringFixed(2))
	assert.Equal(t, "67.57", rooms[0].Accommodation.Price.DiscountAmount.StringFixed(2))
	assert.Equal(t, "300.00", rooms[2].Accommodation.Price.Final.StringFixed(2))
}

func TestGetAccommodationCountsAvailableRooms(t *testing.T) {
	svc, store := catalogFixture()
	_, err := store.ClaimAndCreate(context.Background(), 7, &model.Booking{StudentID: 1})
	require.NoError(t, err)

	d, err := svc.GetAccommodation(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, d.Rooms, 2)
	assert.Equal(t, 1, d.Available)
	assert.Equal(t, "Spring Fest", d.Price.FestivalName)

	_, err = svc.GetAccommodation(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

type captureSearch struct {
	*memStore
	got repository.SearchQuery
}

func (c *captureSearch) Search(ctx context.Context, q repository.SearchQuery) ([]model.Accommodation, int64, error) {
	c.got = q
	return c.memStore.Search(ctx, q)
}

func TestSearchNormalisesPaging(t *testing.T) {
	_, store := catalogFixture()
	cs := &captureSearch{memStore: store}
	svc := NewCatalogService(cs, store, quietLogger()).WithClock(func() time.Time { return today })

	page, err := svc.Search(context.Background(), SearchParams{Text: "house", PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, cs.got.Page)
	assert.Equal(t, 100, cs.got.PageSize)
	assert.True(t, cs.got.Today.Equal(today))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "382.93", page.Items[0].Price.Final.StringFixed(2))
}
