package booking

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/repository/memory"
)

type fixture struct {
	store  *memory.Store
	cache  *memory.Cache
	events *memory.Events
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	cache := memory.NewCache()
	events := memory.NewEvents()

	return &fixture{
		store:  store,
		cache:  cache,
		events: events,
		svc:    New(memory.NewUoW(store), cache, events, nil),
	}
}

func TestReserveSeat(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 100})
	userID := uuid.New()

	b, err := f.svc.ReserveSeat(context.Background(), concert.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingReserved, b.Status)
	assert.Equal(t, concert.ID, b.ConcertID)
	assert.Equal(t, userID, b.UserID)

	stored, ok := f.store.Concert(concert.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stored.ReservedSeats)

	assert.Contains(t, f.cache.Invalidations, "concert:"+concert.ID.String()+"*")
	assert.Contains(t, f.cache.Invalidations, "concerts:*")
	assert.Equal(t, []uuid.UUID{concert.ID}, f.events.Published)
}

func TestReserveSeat_AlreadyReserved(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 100})
	userID := uuid.New()

	_, err := f.svc.ReserveSeat(context.Background(), concert.ID, userID)
	require.NoError(t, err)

	_, err = f.svc.ReserveSeat(context.Background(), concert.ID, userID)
	assert.ErrorIs(t, err, ErrAlreadyReserved)

	stored, _ := f.store.Concert(concert.ID)
	assert.Equal(t, 1, stored.ReservedSeats, "failed attempt must not change the count")
}

func TestReserveSeat_AlreadyReservedBeatsFullConcert(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Club Night", TotalSeats: 1})
	userID := uuid.New()

	_, err := f.svc.ReserveSeat(context.Background(), concert.ID, userID)
	require.NoError(t, err)

	// The holder of the last seat gets the already-reserved conflict,
	// not the full-concert one.
	_, err = f.svc.ReserveSeat(context.Background(), concert.ID, userID)
	assert.ErrorIs(t, err, ErrAlreadyReserved)
}

func TestReserveSeat_ConcertFull(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Club Night", TotalSeats: 1})

	_, err := f.svc.ReserveSeat(context.Background(), concert.ID, uuid.New())
	require.NoError(t, err)

	_, err = f.svc.ReserveSeat(context.Background(), concert.ID, uuid.New())
	assert.ErrorIs(t, err, ErrConcertFull)
}

func TestReserveSeat_ConcertNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ReserveSeat(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrConcertNotFound)
	assert.Empty(t, f.cache.Invalidations, "failed reservation must not touch the cache")
	assert.Empty(t, f.events.Published)
}

func TestReserveSeat_Reactivation(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 10})
	userID := uuid.New()

	first, err := f.svc.ReserveSeat(context.Background(), concert.ID, userID)
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(context.Background(), concert.ID, userID)
	require.NoError(t, err)

	again, err := f.svc.ReserveSeat(context.Background(), concert.ID, userID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID, "reactivation reuses the booking row")
	assert.Equal(t, first.CreatedAt, again.CreatedAt)
	assert.Equal(t, domain.BookingReserved, again.Status)

	stored, _ := f.store.Concert(concert.ID)
	assert.Equal(t, 1, stored.ReservedSeats, "net effect of reserve/cancel/reserve is one seat")
}

func TestReserveSeat_LastSeatRace(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Club Night", TotalSeats: 1})

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.ReserveSeat(context.Background(), concert.ID, uuid.New())
		}(i)
	}
	wg.Wait()

	var okCount, fullCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		default:
			assert.ErrorIs(t, err, ErrConcertFull)
			fullCount++
		}
	}

	assert.Equal(t, 1, okCount, "exactly one of the racing calls wins the seat")
	assert.Equal(t, 1, fullCount)

	stored, _ := f.store.Concert(concert.ID)
	assert.Equal(t, 1, stored.ReservedSeats)
	assert.Equal(t, 1, len(f.events.Published), "only the committed reservation publishes")
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 10})
	userID := uuid.New()

	reserved, err := f.svc.ReserveSeat(context.Background(), concert.ID, userID)
	require.NoError(t, err)

	canceled, err := f.svc.CancelBooking(context.Background(), concert.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCanceled, canceled.Status)
	assert.Equal(t, reserved.ID, canceled.ID)

	stored, _ := f.store.Concert(concert.ID)
	assert.Equal(t, 0, stored.ReservedSeats, "cancel releases the seat")
}

func TestCancelBooking_NotFound(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 10})

	_, err := f.svc.CancelBooking(context.Background(), concert.ID, uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelBooking_AlreadyCanceled(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 10})
	userID := uuid.New()

	_, err := f.svc.ReserveSeat(context.Background(), concert.ID, userID)
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(context.Background(), concert.ID, userID)
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(context.Background(), concert.ID, userID)
	assert.ErrorIs(t, err, ErrAlreadyCanceled)

	stored, _ := f.store.Concert(concert.ID)
	assert.Equal(t, 0, stored.ReservedSeats, "a second cancel must not go negative")
}

func TestReserveCancelCycle_CountsStayConsistent(t *testing.T) {
	f := newFixture(t)
	concert := f.store.SeedConcert(domain.Concert{Name: "Open Air", TotalSeats: 3})
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	for _, u := range users {
		_, err := f.svc.ReserveSeat(context.Background(), concert.ID, u)
		require.NoError(t, err)
	}

	stored, _ := f.store.Concert(concert.ID)
	assert.Equal(t, 3, stored.ReservedSeats)

	_, err := f.svc.ReserveSeat(context.Background(), concert.ID, uuid.New())
	assert.ErrorIs(t, err, ErrConcertFull)

	_, err = f.svc.CancelBooking(context.Background(), concert.ID, users[0])
	require.NoError(t, err)

	// The freed seat is reservable again.
	_, err = f.svc.ReserveSeat(context.Background(), concert.ID, uuid.New())
	require.NoError(t, err)

	stored, _ = f.store.Concert(concert.ID)
	assert.Equal(t, 3, stored.ReservedSeats)
}
