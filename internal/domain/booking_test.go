package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooking_Cancel(t *testing.T) {
	b := Booking{
		ID:        uuid.New(),
		Status:    BookingReserved,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}

	canceled, err := b.Cancel()
	require.NoError(t, err)
	assert.Equal(t, BookingCanceled, canceled.Status)
	assert.Equal(t, b.ID, canceled.ID)
	assert.Equal(t, b.CreatedAt, canceled.CreatedAt)

	_, err = canceled.Cancel()
	assert.ErrorIs(t, err, ErrBookingCanceled)
}

func TestBooking_Reactivate_KeepsIdentity(t *testing.T) {
	b := Booking{
		ID:        uuid.New(),
		Status:    BookingReserved,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}

	canceled, err := b.Cancel()
	require.NoError(t, err)

	again := canceled.Reactivate()
	assert.Equal(t, BookingReserved, again.Status)
	assert.Equal(t, b.ID, again.ID)
	assert.Equal(t, b.CreatedAt, again.CreatedAt)
}
