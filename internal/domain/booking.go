package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingReserved BookingStatus = "RESERVED"
	BookingCanceled BookingStatus = "CANCELED"
)

// Booking holds the single row a user has for a concert. The row is reused
// across cancel/re-reserve cycles: reactivation keeps the ID and CreatedAt.
type Booking struct {
	ID        uuid.UUID     `json:"id"`
	ConcertID uuid.UUID     `json:"concert_id"`
	UserID    uuid.UUID     `json:"user_id"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Cancel returns a CANCELED copy, preserving CreatedAt.
//
// Returns:
//   - Booking: the canceled booking.
//   - error: domain.ErrBookingCanceled if it is already canceled.
func (b Booking) Cancel() (Booking, error) {
	if b.Status == BookingCanceled {
		return Booking{}, ErrBookingCanceled
	}

	next := b
	next.Status = BookingCanceled
	next.UpdatedAt = time.Now().UTC()

	return next, nil
}

// Reactivate returns a RESERVED copy of a canceled booking, keeping the
// same ID and CreatedAt.
func (b Booking) Reactivate() Booking {
	next := b
	next.Status = BookingReserved
	next.UpdatedAt = time.Now().UTC()

	return next
}

// BookingWithConcert is a booking joined with its concert's name for
// listing views.
type BookingWithConcert struct {
	Booking
	ConcertName string `json:"concert_name"`
	Username    string `json:"username,omitempty"`
}
