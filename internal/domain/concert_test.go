package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcert_ReserveSeat(t *testing.T) {
	c := Concert{TotalSeats: 2, ReservedSeats: 0}

	next, err := c.ReserveSeat()
	require.NoError(t, err)
	assert.Equal(t, 1, next.ReservedSeats)
	assert.Equal(t, 0, c.ReservedSeats, "receiver must not mutate")

	next, err = next.ReserveSeat()
	require.NoError(t, err)
	assert.Equal(t, 2, next.ReservedSeats)
	assert.Equal(t, 0, next.AvailableSeats())

	_, err = next.ReserveSeat()
	assert.ErrorIs(t, err, ErrNoAvailableSeats)
}

func TestConcert_ReserveSeat_Deleted(t *testing.T) {
	c := Concert{TotalSeats: 10}

	deleted, err := c.SoftDelete()
	require.NoError(t, err)

	_, err = deleted.ReserveSeat()
	assert.ErrorIs(t, err, ErrNoAvailableSeats)
}

func TestConcert_CancelReservation(t *testing.T) {
	c := Concert{TotalSeats: 5, ReservedSeats: 1}

	next, err := c.CancelReservation()
	require.NoError(t, err)
	assert.Equal(t, 0, next.ReservedSeats)

	_, err = next.CancelReservation()
	assert.ErrorIs(t, err, ErrNoReservedSeats)
}

func TestConcert_SoftDelete_Terminal(t *testing.T) {
	c := Concert{TotalSeats: 5}

	deleted, err := c.SoftDelete()
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted())
	assert.False(t, deleted.CanReserve())

	_, err = deleted.SoftDelete()
	assert.ErrorIs(t, err, ErrConcertDeleted)
}
