package domain

import (
	"time"

	"github.com/google/uuid"
)

// Concert is an immutable value object. State transitions return a new
// instance and never mutate the receiver; durable state lives in the
// repository layer.
type Concert struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	TotalSeats    int        `json:"total_seats"`
	ReservedSeats int        `json:"reserved_seats"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

func (c Concert) AvailableSeats() int {
	return c.TotalSeats - c.ReservedSeats
}

func (c Concert) IsDeleted() bool {
	return c.DeletedAt != nil
}

// CanReserve reports whether another seat can be reserved.
func (c Concert) CanReserve() bool {
	return !c.IsDeleted() && c.ReservedSeats < c.TotalSeats
}

// ReserveSeat returns a copy with one more reserved seat.
//
// Returns:
//   - Concert: the updated concert.
//   - error: domain.ErrNoAvailableSeats if the concert is full or deleted.
func (c Concert) ReserveSeat() (Concert, error) {
	if !c.CanReserve() {
		return Concert{}, ErrNoAvailableSeats
	}

	next := c
	next.ReservedSeats++
	next.UpdatedAt = time.Now().UTC()

	return next, nil
}

// CancelReservation returns a copy with one less reserved seat.
//
// Returns:
//   - Concert: the updated concert.
//   - error: domain.ErrNoReservedSeats if no seats are reserved.
func (c Concert) CancelReservation() (Concert, error) {
	if c.ReservedSeats <= 0 {
		return Concert{}, ErrNoReservedSeats
	}

	next := c
	next.ReservedSeats--
	next.UpdatedAt = time.Now().UTC()

	return next, nil
}

// SoftDelete marks the concert deleted. Deletion is terminal.
//
// Returns:
//   - Concert: the deleted concert.
//   - error: domain.ErrConcertDeleted if it is already deleted.
func (c Concert) SoftDelete() (Concert, error) {
	if c.IsDeleted() {
		return Concert{}, ErrConcertDeleted
	}

	now := time.Now().UTC()

	next := c
	next.UpdatedAt = now
	next.DeletedAt = &now

	return next, nil
}
