package booking

import "errors"

// Error messages below are API contract and surface verbatim.
var (
	ErrAlreadyReserved = errors.New("User already has a reservation for this concert")
	ErrConcertFull     = errors.New("Concert is fully booked")
	ErrConcertNotFound = errors.New("Concert not found")
	ErrBookingNotFound = errors.New("Booking not found")
	ErrAlreadyCanceled = errors.New("Booking already canceled")
	ErrRateLimited     = errors.New("too many reservation attempts")
)
