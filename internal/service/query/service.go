package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/repository"
	redisrepo "github.com/kirinyoku/stagepass/internal/repository/redis"
	"github.com/kirinyoku/stagepass/internal/service/ports"
)

type Config struct {
	ConcertTTL time.Duration
}

// Service serves the read path: concert lookups go through the cache,
// booking listings hit the repository directly.
type Service struct {
	repos ports.Repos
	cache ports.Cache
	cfg   Config
	sf    singleflight.Group
}

func New(repos ports.Repos, cache ports.Cache, cfg Config) *Service {
	if cfg.ConcertTTL <= 0 {
		cfg.ConcertTTL = 300 * time.Second
	}

	return &Service{
		repos: repos,
		cache: cache,
		cfg:   cfg,
	}
}

// GetAllConcerts returns all non-deleted concerts, newest first, through
// the "concerts:all" cache. Concurrent misses collapse into a single
// repository read.
func (s *Service) GetAllConcerts(ctx context.Context) ([]domain.Concert, error) {
	const op = "service.query.GetAllConcerts"

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		&s.sf,
		redisrepo.KeyConcertsAll(),
		s.cfg.ConcertTTL,
		func(ctx context.Context) ([]domain.Concert, error) {
			return s.repos.Concerts().FindAll(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// GetConcertByID returns a concert through the "concert:{id}" cache.
// A missing or soft-deleted concert is (nil, nil), not an error; only
// found concerts are cached.
func (s *Service) GetConcertByID(ctx context.Context, id uuid.UUID) (*domain.Concert, error) {
	const op = "service.query.GetConcertByID"

	key := redisrepo.KeyConcert(id)

	if c, ok, err := redisrepo.GetJSON[domain.Concert](ctx, s.cache, key); ok && err == nil {
		return &c, nil
	}

	c, err := s.repos.Concerts().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_ = redisrepo.SetJSON(ctx, s.cache, key, c, s.cfg.ConcertTTL)

	return c, nil
}

// GetUserBookings lists the user's bookings with concert names, newest
// first.
func (s *Service) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]domain.BookingWithConcert, error) {
	const op = "service.query.GetUserBookings"

	out, err := s.repos.Bookings().FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// GetAllBookings lists every booking with concert names and usernames,
// newest first.
func (s *Service) GetAllBookings(ctx context.Context) ([]domain.BookingWithConcert, error) {
	const op = "service.query.GetAllBookings"

	out, err := s.repos.Bookings().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// GetUserBookingForConcert returns the user's booking row for a concert,
// or nil when none exists.
func (s *Service) GetUserBookingForConcert(ctx context.Context, concertID, userID uuid.UUID) (*domain.Booking, error) {
	const op = "service.query.GetUserBookingForConcert"

	b, err := s.repos.Bookings().FindByConcertAndUser(ctx, concertID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}
