package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentacc/accommodation-booking/internal/model"
)

var (
	today   = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	student = Identity{UserID: 11, Email: "kim@uni.ac.uk", Role: model.RoleStudent}
)

func festival(pct string, start, end time.Time) *model.FestivalDiscount {
	return &model.FestivalDiscount{
		ID: 4, Name: "Spring Fest", Percentage: decimal.RequireFromString(pct),
		StartDate: start, EndDate: end, Enabled: true,
	}
}

func setup(discount *model.FestivalDiscount, rooms ...string) (*BookingService, *memStore, *recordingNotifier) {
	store := newMemStore()
	store.addAccommodation(model.Accommodation{
		ID: 7, Title: "Maple House", City: "Leeds",
		PricePerMonth: decimal.RequireFromString("100.00"), Discount: discount,
	}, rooms...)
	n := &recordingNotifier{}
	svc := NewBookingService(store, store, store, n, quietLogger()).WithClock(func() time.Time { return today })
	return svc, store, n
}

func TestBookAppliesActiveDiscount(t *testing.T) {
	svc, store, n := setup(festival("20", today.AddDate(0, 0, -1), today.AddDate(0, 0, 1)), "101")

	res, err := svc.Book(context.Background(), 7, student)
	require.NoError(t, err)
	assert.Equal(t, "100.00", res.Booking.OriginalPrice.StringFixed(2))
	assert.Equal(t, "20.00", res.Booking.DiscountApplied.StringFixed(2))
	assert.Equal(t, "80.00", res.Booking.FinalPrice.StringFixed(2))
	assert.Equal(t, "101", res.Room.RoomNumber)
	assert.Equal(t, model.RoomBooked, store.roomStatus("101"))
	assert.True(t, res.Booking.DateBooked.Equal(today))

	require.Len(t, n.snapshots, 1)
	assert.Equal(t, "80.00", n.snapshots[0].FinalPrice)
	assert.Equal(t, "Maple House", n.snapshots[0].Accommodation)
	assert.Equal(t, []string{"kim@uni.ac.uk"}, n.emails)
	assert.Len(t, n.alerts, 1)
}

func TestBookingPricesFrozenAfterCatalogChanges(t *testing.T) {
	svc, store, _ := setup(festival("20", today.AddDate(0, 0, -1), today.AddDate(0, 0, 1)), "101", "102")
	ctx := context.Background()

	first, err := svc.Book(ctx, 7, student)
	require.NoError(t, err)

	acc := store.accommodations[7]
	acc.Discount.Percentage = decimal.NewFromInt(50)
	acc.PricePerMonth = decimal.RequireFromString("200.00")

	second, err := svc.Book(ctx, 7, student)
	require.NoError(t, err)
	assert.Equal(t, "100.00", second.Booking.FinalPrice.StringFixed(2))

	acc.Discount.Enabled = false

	stored := store.bookings[first.Booking.ID]
	assert.Equal(t, "100.00", stored.OriginalPrice.StringFixed(2))
	assert.Equal(t, "20.00", stored.DiscountApplied.StringFixed(2))
	assert.Equal(t, "80.00", stored.FinalPrice.StringFixed(2))

	mine, err := svc.ListMine(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	byID := map[uint64][3]string{}
	for _, d := range mine {
		byID[d.ID] = [3]string{d.OriginalPrice.StringFixed(2), d.DiscountApplied.StringFixed(2), d.FinalPrice.StringFixed(2)}
	}
	assert.Equal(t, [3]string{"100.00", "20.00", "80.00"}, byID[first.Booking.ID])
	assert.Equal(t, [3]string{"200.00", "100.00", "100.00"}, byID[second.Booking.ID])
}

func TestBookDiscountWindowIsInclusive(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		final      string
	}{
		{"starts today", model.DateOf(today), today.AddDate(0, 0, 5), "80.00"},
		{"ends today", today.AddDate(0, 0, -5), model.DateOf(today), "80.00"},
		{"ended yesterday", today.AddDate(0, 0, -5), today.AddDate(0, 0, -1), "100.00"},
		{"starts tomorrow", today.AddDate(0, 0, 1), today.AddDate(0, 0, 5), "100.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := setup(festival("20", tc.start, tc.end), "101")
			res, err := svc.Book(context.Background(), 7, student)
			require.NoError(t, err)
			assert.Equal(t, tc.final, res.Booking.FinalPrice.StringFixed(2))
		})
	}
}

func TestBookInvalidDiscountFailsOpen(t *testing.T) {
	svc, _, _ := setup(festival("150", today.AddDate(0, 0, -1), today.AddDate(0, 0, 1)), "101")

	res, err := svc.Book(context.Background(), 7, student)
	require.NoError(t, err)
	assert.Equal(t, "100.00", res.Booking.FinalPrice.StringFixed(2))
	assert.True(t, res.Booking.DiscountApplied.IsZero())
}

func TestBookUnknownAccommodation(t *testing.T) {
	svc, _, n := setup(nil, "101")
	_, err := svc.Book(context.Background(), 999, student)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, n.snapshots)
}

func TestBookNoRoomCreatesNothing(t *testing.T) {
	svc, store, n := setup(nil, "101")
	_, err := svc.Book(context.Background(), 7, student)
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), 7, Identity{UserID: 12, Email: "lee@uni.ac.uk"})
	assert.ErrorIs(t, err, ErrNoRoomAvailable)
	assert.Len(t, store.bookings, 1)
	assert.Len(t, n.snapshots, 1)
}

func TestBookSurvivesNotifierFailures(t *testing.T) {
	for _, n := range []*recordingNotifier{{fail: true}, {explode: true}} {
		store := newMemStore()
		store.addAccommodation(model.Accommodation{ID: 7, Title: "Maple House", PricePerMonth: decimal.NewFromInt(100)}, "101")
		svc := NewBookingService(store, store, store, n, quietLogger())

		res, err := svc.Book(context.Background(), 7, student)
		require.NoError(t, err)
		assert.NotZero(t, res.Booking.ID)
		assert.Len(t, store.bookings, 1)
		// every channel was attempted even though earlier ones failed
		assert.Len(t, n.snapshots, 1)
		assert.Len(t, n.alerts, 1)
		assert.Len(t, n.emails, 1)
	}
}

func TestBookEnsuresSingleStudentProfile(t *testing.T) {
	svc, store, _ := setup(nil, "101", "102")
	_, err := svc.Book(context.Background(), 7, student)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), 7, student)
	require.NoError(t, err)

	assert.Len(t, store.students, 1)
	mine, err := svc.ListMine(context.Background(), student)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestConcurrentBookingsForLastRoom(t *testing.T) {
	svc, store, _ := setup(nil, "101")

	const callers = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		noRoom    int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), 7, Identity{UserID: uid})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrNoRoomAvailable):
				noRoom++
			}
		}(uint64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, noRoom)
	assert.Len(t, store.bookings, 1)
}

func TestCancel(t *testing.T) {
	t.Run("restores room", func(t *testing.T) {
		svc, store, _ := setup(nil, "101")
		res, err := svc.Book(context.Background(), 7, student)
		require.NoError(t, err)

		require.NoError(t, svc.Cancel(context.Background(), res.Booking.ID, student))
		assert.Equal(t, model.RoomAvailable, store.roomStatus("101"))
		assert.Empty(t, store.bookings)

		// the freed room can be booked again
		_, err = svc.Book(context.Background(), 7, student)
		assert.NoError(t, err)
	})

	t.Run("someone else's booking", func(t *testing.T) {
		svc, store, _ := setup(nil, "101")
		res, err := svc.Book(context.Background(), 7, student)
		require.NoError(t, err)

		other := Identity{UserID: 12, Email: "lee@uni.ac.uk"}
		_, err = store.EnsureForUser(context.Background(), other.UserID, other.Email)
		require.NoError(t, err)

		assert.ErrorIs(t, svc.Cancel(context.Background(), res.Booking.ID, other), ErrForbidden)
		assert.Equal(t, model.RoomBooked, store.roomStatus("101"))
	})

	t.Run("missing booking", func(t *testing.T) {
		svc, _, _ := setup(nil, "101")
		_, err := svc.Book(context.Background(), 7, student)
		require.NoError(t, err)
		assert.ErrorIs(t, svc.Cancel(context.Background(), 424242, student), ErrNotFound)
	})

	t.Run("caller never booked", func(t *testing.T) {
		svc, _, _ := setup(nil, "101")
		assert.ErrorIs(t, svc.Cancel(context.Background(), 1, student), ErrNotFound)
	})
}

func TestListMineWithoutProfile(t *testing.T) {
	svc, _, _ := setup(nil)
	mine, err := svc.ListMine(context.Background(), student)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
