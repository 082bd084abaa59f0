package httpgin

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/repository/memory"
	"github.com/kirinyoku/stagepass/internal/service"
	"github.com/kirinyoku/stagepass/internal/service/auth"
	"github.com/kirinyoku/stagepass/internal/service/query"
)

const testSecret = "test-secret"

type testEnv struct {
	store  *memory.Store
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	cache := memory.NewCache()
	events := memory.NewEvents()

	svcs := service.NewServices(store, memory.NewUoW(store), cache, events, nil, service.Config{
		Auth: auth.Config{
			Secret:     testSecret,
			TokenTTL:   time.Hour,
			BcryptCost: bcrypt.MinCost,
		},
		Query: query.Config{ConcertTTL: 300 * time.Second},
	})

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	return &testEnv{
		store:  store,
		router: NewRouter(svcs, testSecret, logger),
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, username, role string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Username: username,
		Password: "s3cret",
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.AccessToken
}

func TestReserveFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "ADMIN")
	user := env.register(t, "alice", "USER")

	w := env.do(t, http.MethodPost, "/concerts", admin, CreateConcertRequest{
		Name:       "Open Air",
		TotalSeats: 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var concert ConcertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &concert))

	w = env.do(t, http.MethodPost, "/concerts/"+concert.ID.String()+"/reserve", user, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var booking BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
	assert.Equal(t, string(domain.BookingReserved), booking.Status)

	// Second attempt by the same user conflicts.
	w = env.do(t, http.MethodPost, "/concerts/"+concert.ID.String()+"/reserve", user, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var errRes ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errRes))
	assert.Equal(t, "User already has a reservation for this concert", errRes.Error)

	// The listing shows the caller's booking state.
	w = env.do(t, http.MethodGet, "/concerts", user, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []ConcertWithBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.True(t, list[0].IsReserved)
	assert.Equal(t, 1, list[0].ReservedSeats)
}

func TestReserve_FullConcert(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "ADMIN")
	first := env.register(t, "alice", "USER")
	second := env.register(t, "bob", "USER")

	w := env.do(t, http.MethodPost, "/concerts", admin, CreateConcertRequest{
		Name:       "Club Night",
		TotalSeats: 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var concert ConcertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &concert))

	w = env.do(t, http.MethodPost, "/concerts/"+concert.ID.String()+"/reserve", first, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/concerts/"+concert.ID.String()+"/reserve", second, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var errRes ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errRes))
	assert.Equal(t, "Concert is fully booked", errRes.Error)
}

func TestCancelFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "ADMIN")
	user := env.register(t, "alice", "USER")

	w := env.do(t, http.MethodPost, "/concerts", admin, CreateConcertRequest{
		Name:       "Open Air",
		TotalSeats: 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var concert ConcertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &concert))

	// Cancel without a booking.
	w = env.do(t, http.MethodPost, "/concerts/"+concert.ID.String()+"/cancel", user, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/concerts/"+concert.ID.String()+"/reserve", user, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/concerts/"+concert.ID.String()+"/cancel", user, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var booking BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
	assert.Equal(t, string(domain.BookingCanceled), booking.Status)

	// Double cancel conflicts.
	w = env.do(t, http.MethodPost, "/concerts/"+concert.ID.String()+"/cancel", user, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var errRes ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errRes))
	assert.Equal(t, "Booking already canceled", errRes.Error)
}

func TestAdminGuards(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "alice", "USER")

	w := env.do(t, http.MethodPost, "/concerts", user, CreateConcertRequest{
		Name:       "Open Air",
		TotalSeats: 10,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/bookings", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/concerts", "", CreateConcertRequest{
		Name:       "Open Air",
		TotalSeats: 10,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateConcert_Validation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "ADMIN")

	w := env.do(t, http.MethodPost, "/concerts", admin, CreateConcertRequest{
		Name:       "   ",
		TotalSeats: 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errRes ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errRes))
	assert.Equal(t, "Concert name is required", errRes.Error)

	w = env.do(t, http.MethodPost, "/concerts", admin, CreateConcertRequest{
		Name:       "Open Air",
		TotalSeats: 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errRes))
	assert.Equal(t, "Total seats must be greater than 0", errRes.Error)
}

func TestDeleteConcert(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin", "ADMIN")
	user := env.register(t, "alice", "USER")

	w := env.do(t, http.MethodPost, "/concerts", admin, CreateConcertRequest{
		Name:       "Open Air",
		TotalSeats: 10,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var concert ConcertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &concert))

	w = env.do(t, http.MethodPost, "/concerts/"+concert.ID.String()+"/reserve", user, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodDelete, "/concerts/"+concert.ID.String(), admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Gone from reads.
	w = env.do(t, http.MethodGet, "/concerts/"+concert.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Its bookings were canceled.
	w = env.do(t, http.MethodGet, "/bookings/me", user, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var bookings []BookingWithConcertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bookings))
	require.Len(t, bookings, 1)
	assert.Equal(t, string(domain.BookingCanceled), bookings[0].Status)

	// Repeat delete is not-found.
	w = env.do(t, http.MethodDelete, "/concerts/"+concert.ID.String(), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
