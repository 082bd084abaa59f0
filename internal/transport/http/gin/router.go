package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/service"
	"github.com/kirinyoku/stagepass/internal/service/auth"
	"github.com/kirinyoku/stagepass/internal/service/booking"
	"github.com/kirinyoku/stagepass/internal/service/concerts"
)

func NewRouter(
	svcs *service.Services,
	jwtSecret string,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	authed := AuthMiddleware(jwtSecret)
	adminOnly := RequireRole(domain.RoleAdmin)

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth
	r.POST("/auth/register", handleRegister(svcs))
	r.POST("/auth/login", handleLogin(svcs))

	// Public / user API
	r.GET("/concerts", handleListConcerts(svcs, jwtSecret))
	r.GET("/concerts/:id", handleGetConcert(svcs))

	user := r.Group("/", authed)
	{
		user.POST("/concerts/:id/reserve", handleReserveSeat(svcs))
		user.POST("/concerts/:id/cancel", handleCancelBooking(svcs))
		user.GET("/bookings/me", handleMyBookings(svcs))
	}

	// Admin API
	admin := r.Group("/", authed, adminOnly)
	{
		admin.POST("/concerts", handleCreateConcert(svcs))
		admin.DELETE("/concerts/:id", handleDeleteConcert(svcs))
		admin.GET("/bookings", handleListBookings(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Register user
// @Param    req body  RegisterRequest true "payload"
// @Success  201 {object} AuthResponse
// @Failure  409 {object} ErrorResponse
// @Router   /auth/register [post]
func handleRegister(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		res, err := svcs.Auth.Register(
			c.Request.Context(),
			req.Username,
			req.Password,
			domain.UserRole(req.Role),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, AuthResponse{
			AccessToken: res.AccessToken,
			User: UserResponse{
				ID:       res.User.ID,
				Username: res.User.Username,
				Role:     string(res.User.Role),
			},
		})
	}
}

// @Summary  Login
// @Param    req body  LoginRequest true "payload"
// @Success  200 {object} AuthResponse
// @Failure  401 {object} ErrorResponse
// @Router   /auth/login [post]
func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		res, err := svcs.Auth.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, AuthResponse{
			AccessToken: res.AccessToken,
			User: UserResponse{
				ID:       res.User.ID,
				Username: res.User.Username,
				Role:     string(res.User.Role),
			},
		})
	}
}

// @Summary  List concerts
// @Success  200 {array} ConcertWithBookingResponse
// @Router   /concerts [get]
func handleListConcerts(svcs *service.Services, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Query.GetAllConcerts(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		// The listing is public, but an authenticated caller also sees
		// their own booking state per concert.
		userID, authed := optionalCallerID(c, jwtSecret)

		out := make([]ConcertWithBookingResponse, 0, len(list))
		for _, concert := range list {
			item := ConcertWithBookingResponse{
				ConcertResponse: toConcertResponse(concert),
			}

			if authed {
				b, err := svcs.Query.GetUserBookingForConcert(
					c.Request.Context(),
					concert.ID,
					userID,
				)
				if err != nil {
					respondErr(c, err)
					return
				}
				if b != nil && b.Status == domain.BookingReserved {
					item.IsReserved = true
					id := b.ID
					item.BookingID = &id
				}
			}

			out = append(out, item)
		}

		if authed {
			c.JSON(http.StatusOK, out)
			return
		}
		// ETag + Cache-Control 15s for the anonymous listing
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

// @Summary  Get concert
// @Param    id  path  string  true  "Concert ID (uuid)"
// @Success  200 {object} ConcertResponse
// @Failure  404 {object} ErrorResponse
// @Router   /concerts/{id} [get]
func handleGetConcert(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		concert, err := svcs.Query.GetConcertByID(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		if concert == nil {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Concert not found"})
			return
		}

		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, toConcertResponse(*concert), "public, max-age=15", true)
	}
}

// @Summary  Create concert
// @Param    req body  CreateConcertRequest true "payload"
// @Success  201 {object} ConcertResponse
// @Failure  400 {object} ErrorResponse
// @Router   /concerts [post]
func handleCreateConcert(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateConcertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		concert, err := svcs.Concerts.Create(c.Request.Context(), concerts.CreateInput{
			Name:        req.Name,
			Description: req.Description,
			TotalSeats:  req.TotalSeats,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, toConcertResponse(*concert))
	}
}

// @Summary  Delete concert and cancel its bookings
// @Param    id  path  string  true  "Concert ID (uuid)"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /concerts/{id} [delete]
func handleDeleteConcert(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		if err := svcs.Concerts.Delete(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// @Summary  Reserve a seat
// @Param    id  path  string  true  "Concert ID (uuid)"
// @Success  201 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "full / already reserved"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /concerts/{id}/reserve [post]
func handleReserveSeat(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		b, err := svcs.Booking.ReserveSeat(c.Request.Context(), id, userID)
		if err != nil {
			if errors.Is(err, booking.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
				return
			}
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, toBookingResponse(*b))
	}
}

// @Summary  Cancel own booking
// @Param    id  path  string  true  "Concert ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "already canceled"
// @Router   /concerts/{id}/cancel [post]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		b, err := svcs.Booking.CancelBooking(c.Request.Context(), id, userID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toBookingResponse(*b))
	}
}

// @Summary  List own bookings
// @Success  200 {array} BookingWithConcertResponse
// @Router   /bookings/me [get]
func handleMyBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		list, err := svcs.Query.GetUserBookings(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toBookingWithConcertResponses(list, false))
	}
}

// @Summary  List all bookings
// @Success  200 {array} BookingWithConcertResponse
// @Router   /bookings [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svcs.Query.GetAllBookings(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, toBookingWithConcertResponses(list, true))
	}
}

// --- Helpers ---

func toBookingWithConcertResponses(
	list []domain.BookingWithConcert,
	withUsername bool,
) []BookingWithConcertResponse {
	out := make([]BookingWithConcertResponse, 0, len(list))
	for _, b := range list {
		item := BookingWithConcertResponse{
			BookingResponse: toBookingResponse(b.Booking),
			ConcertName:     b.ConcertName,
		}
		if withUsername {
			item.Username = b.Username
		}
		out = append(out, item)
	}
	return out
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

// optionalCallerID extracts the caller identity from a Bearer token if one
// is present and valid. Anonymous and bad-token requests both come back as
// not authenticated.
func optionalCallerID(c *gin.Context, secret string) (uuid.UUID, bool) {
	if id, ok := callerID(c); ok {
		return id, true
	}

	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return uuid.Nil, false
	}

	token, err := jwt.Parse(header[len(prefix):], func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// auth service
	case errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: auth.ErrUsernameTaken.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: auth.ErrInvalidCredentials.Error()})
	// concerts service
	case errors.Is(err, concerts.ErrNameRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: concerts.ErrNameRequired.Error()})
	case errors.Is(err, concerts.ErrInvalidSeats):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: concerts.ErrInvalidSeats.Error()})
	case errors.Is(err, concerts.ErrConcertNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: concerts.ErrConcertNotFound.Error()})
	case errors.Is(err, domain.ErrConcertDeleted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: domain.ErrConcertDeleted.Error()})
	// booking service
	case errors.Is(err, booking.ErrConcertNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: booking.ErrConcertNotFound.Error()})
	case errors.Is(err, booking.ErrConcertFull):
		c.JSON(http.StatusConflict, ErrorResponse{Error: booking.ErrConcertFull.Error()})
	case errors.Is(err, booking.ErrAlreadyReserved):
		c.JSON(http.StatusConflict, ErrorResponse{Error: booking.ErrAlreadyReserved.Error()})
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: booking.ErrBookingNotFound.Error()})
	case errors.Is(err, booking.ErrAlreadyCanceled):
		c.JSON(http.StatusConflict, ErrorResponse{Error: booking.ErrAlreadyCanceled.Error()})
	// domain invariants surfaced directly
	case errors.Is(err, domain.ErrNoAvailableSeats):
		c.JSON(http.StatusConflict, ErrorResponse{Error: domain.ErrNoAvailableSeats.Error()})
	case errors.Is(err, domain.ErrNoReservedSeats):
		c.JSON(http.StatusConflict, ErrorResponse{Error: domain.ErrNoReservedSeats.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
