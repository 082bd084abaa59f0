package httpgin

import (
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/stagepass/internal/domain"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=ADMIN USER"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

type CreateConcertRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TotalSeats  int    `json:"total_seats"`
}

type ConcertResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	TotalSeats     int       `json:"total_seats"`
	ReservedSeats  int       `json:"reserved_seats"`
	AvailableSeats int       `json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConcertWithBookingResponse is the user-facing listing entry: the concert
// plus the caller's own booking state on it.
type ConcertWithBookingResponse struct {
	ConcertResponse
	IsReserved bool       `json:"is_reserved"`
	BookingID  *uuid.UUID `json:"booking_id,omitempty"`
}

type BookingResponse struct {
	ID        uuid.UUID `json:"id"`
	ConcertID uuid.UUID `json:"concert_id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingWithConcertResponse struct {
	BookingResponse
	ConcertName string `json:"concert_name"`
	Username    string `json:"username,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toConcertResponse(c domain.Concert) ConcertResponse {
	return ConcertResponse{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		TotalSeats:     c.TotalSeats,
		ReservedSeats:  c.ReservedSeats,
		AvailableSeats: c.AvailableSeats(),
		CreatedAt:      c.CreatedAt,
	}
}

func toBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		ConcertID: b.ConcertID,
		UserID:    b.UserID,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	}
}
