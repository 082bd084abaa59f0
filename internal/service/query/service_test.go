package query

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/repository/memory"
)

func newQueryFixture(t *testing.T) (*memory.Store, *memory.Cache, *Service) {
	t.Helper()

	store := memory.NewStore()
	cache := memory.NewCache()
	svc := New(store, cache, Config{ConcertTTL: 300 * time.Second})

	return store, cache, svc
}

func TestGetAllConcerts_ReadThrough(t *testing.T) {
	store, cache, svc := newQueryFixture(t)
	store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 100})

	list, err := svc.GetAllConcerts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, cache.Contains("concerts:all"), "miss populates the cache")

	// A second read is served from the cache: a concert added behind
	// its back is not visible until invalidation.
	store.SeedConcert(domain.Concert{Name: "Club Night", TotalSeats: 50})

	list, err = svc.GetAllConcerts(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, cache.InvalidatePattern(context.Background(), "concerts:*"))

	list, err = svc.GetAllConcerts(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGetAllConcerts_ExcludesDeleted(t *testing.T) {
	store, _, svc := newQueryFixture(t)
	live := store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 100})

	deleted, err := store.SeedConcert(domain.Concert{Name: "Gone", TotalSeats: 10}).SoftDelete()
	require.NoError(t, err)
	_, err = store.Concerts().Update(context.Background(), deleted)
	require.NoError(t, err)

	list, err := svc.GetAllConcerts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, live.ID, list[0].ID)
}

func TestGetConcertByID(t *testing.T) {
	store, cache, svc := newQueryFixture(t)
	concert := store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 100})

	got, err := svc.GetConcertByID(context.Background(), concert.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, concert.ID, got.ID)
	assert.True(t, cache.Contains("concert:"+concert.ID.String()))
}

func TestGetConcertByID_Missing(t *testing.T) {
	_, cache, svc := newQueryFixture(t)
	id := uuid.New()

	got, err := svc.GetConcertByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got, "missing concert is nil, not an error")
	assert.False(t, cache.Contains("concert:"+id.String()), "misses are not cached")
}

func TestGetUserBookings(t *testing.T) {
	store, _, svc := newQueryFixture(t)
	concert := store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 100})
	userID := uuid.New()

	_, err := store.Bookings().Create(context.Background(), domain.Booking{
		ConcertID: concert.ID,
		UserID:    userID,
		Status:    domain.BookingReserved,
	})
	require.NoError(t, err)

	_, err = store.Bookings().Create(context.Background(), domain.Booking{
		ConcertID: concert.ID,
		UserID:    uuid.New(),
		Status:    domain.BookingReserved,
	})
	require.NoError(t, err)

	list, err := svc.GetUserBookings(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, userID, list[0].UserID)
	assert.Equal(t, "Open Air", list[0].ConcertName)

	all, err := svc.GetAllBookings(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetUserBookingForConcert(t *testing.T) {
	store, _, svc := newQueryFixture(t)
	concert := store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 100})
	userID := uuid.New()

	got, err := svc.GetUserBookingForConcert(context.Background(), concert.ID, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	created, err := store.Bookings().Create(context.Background(), domain.Booking{
		ConcertID: concert.ID,
		UserID:    userID,
		Status:    domain.BookingReserved,
	})
	require.NoError(t, err)

	got, err = svc.GetUserBookingForConcert(context.Background(), concert.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
}
