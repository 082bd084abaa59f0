package concerts

import "errors"

// Error messages below are API contract and surface verbatim.
var (
	ErrNameRequired    = errors.New("Concert name is required")
	ErrInvalidSeats    = errors.New("Total seats must be greater than 0")
	ErrConcertNotFound = errors.New("Concert not found")
)
