package domain

import "errors"

// Entity transition errors. The messages are part of the API contract and
// surface verbatim to clients.
var (
	ErrNoAvailableSeats = errors.New("No available seats")
	ErrNoReservedSeats  = errors.New("No reserved seats to cancel")
	ErrConcertDeleted   = errors.New("Concert already deleted")
	ErrBookingCanceled  = errors.New("Booking already canceled")
)
