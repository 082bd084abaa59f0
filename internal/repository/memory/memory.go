// Package memory is a map-backed implementation of the service ports used
// in tests. The unit of work serializes mutations under one mutex and
// restores a snapshot on error, giving the same commit-or-nothing semantics
// the SQL store provides with transactions.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/repository"
	"github.com/kirinyoku/stagepass/internal/service/ports"
)

type Store struct {
	mu       sync.Mutex
	concerts map[uuid.UUID]domain.Concert
	bookings map[uuid.UUID]domain.Booking
	users    map[uuid.UUID]domain.User
}

func NewStore() *Store {
	return &Store{
		concerts: make(map[uuid.UUID]domain.Concert),
		bookings: make(map[uuid.UUID]domain.Booking),
		users:    make(map[uuid.UUID]domain.User),
	}
}

// SeedConcert inserts a concert directly, bypassing validation.
func (s *Store) SeedConcert(c domain.Concert) domain.Concert {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt
	s.concerts[c.ID] = c
	return c
}

// Concert returns the current stored state of a concert, deleted or not.
func (s *Store) Concert(id uuid.UUID) (domain.Concert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.concerts[id]
	return c, ok
}

// Booking returns the current stored state of a booking.
func (s *Store) Booking(id uuid.UUID) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) Concerts() ports.ConcertRepo { return &concertRepo{s: s, locked: false} }
func (s *Store) Bookings() ports.BookingRepo { return &bookingRepo{s: s, locked: false} }
func (s *Store) Users() ports.UserRepo       { return &userRepo{s: s, locked: false} }

// txRepos is the view handed to unit-of-work bodies. The UoW already holds
// the store mutex, so these repos skip locking.
type txRepos struct {
	s *Store
}

func (t txRepos) Concerts() ports.ConcertRepo { return &concertRepo{s: t.s, locked: true} }
func (t txRepos) Bookings() ports.BookingRepo { return &bookingRepo{s: t.s, locked: true} }
func (t txRepos) Users() ports.UserRepo       { return &userRepo{s: t.s, locked: true} }

// --- UnitOfWork ---

// UoW runs the body under the store mutex and rolls the maps back to a
// snapshot when the body fails. After-commit hooks run after the mutex is
// released, matching the SQL unit of work.
type UoW struct {
	s *Store
}

func NewUoW(s *Store) *UoW {
	return &UoW{s: s}
}

func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx ports.Repos, after func(ports.AfterCommit)) error,
) error {
	u.s.mu.Lock()

	snapConcerts := maps.Clone(u.s.concerts)
	snapBookings := maps.Clone(u.s.bookings)
	snapUsers := maps.Clone(u.s.users)

	var hooks []ports.AfterCommit
	after := func(h ports.AfterCommit) {
		hooks = append(hooks, h)
	}

	if err := fn(ctx, txRepos{s: u.s}, after); err != nil {
		u.s.concerts = snapConcerts
		u.s.bookings = snapBookings
		u.s.users = snapUsers
		u.s.mu.Unlock()
		return err
	}

	u.s.mu.Unlock()

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

// --- ConcertRepo ---

type concertRepo struct {
	s      *Store
	locked bool
}

func (r *concertRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *concertRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Concert, error) {
	defer r.lock()()

	c, ok := r.s.concerts[id]
	if !ok || c.IsDeleted() {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *concertRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Concert, error) {
	return r.FindByID(ctx, id)
}

func (r *concertRepo) FindAll(ctx context.Context) ([]domain.Concert, error) {
	defer r.lock()()

	out := make([]domain.Concert, 0, len(r.s.concerts))
	for _, c := range r.s.concerts {
		if c.IsDeleted() {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *concertRepo) Create(ctx context.Context, c domain.Concert) (*domain.Concert, error) {
	defer r.lock()()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	r.s.concerts[c.ID] = c
	return &c, nil
}

func (r *concertRepo) Update(ctx context.Context, c domain.Concert) (*domain.Concert, error) {
	defer r.lock()()

	if _, ok := r.s.concerts[c.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	r.s.concerts[c.ID] = c
	return &c, nil
}

// --- BookingRepo ---

type bookingRepo struct {
	s      *Store
	locked bool
}

func (r *bookingRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *bookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	defer r.lock()()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *bookingRepo) FindByConcertAndUser(ctx context.Context, concertID, userID uuid.UUID) (*domain.Booking, error) {
	defer r.lock()()

	for _, b := range r.s.bookings {
		if b.ConcertID == concertID && b.UserID == userID {
			out := b
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *bookingRepo) FindByConcertID(ctx context.Context, concertID uuid.UUID) ([]domain.Booking, error) {
	defer r.lock()()

	var out []domain.Booking
	for _, b := range r.s.bookings {
		if b.ConcertID == concertID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *bookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.BookingWithConcert, error) {
	defer r.lock()()

	var out []domain.BookingWithConcert
	for _, b := range r.s.bookings {
		if b.UserID != userID {
			continue
		}
		out = append(out, r.withConcert(b))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *bookingRepo) FindAll(ctx context.Context) ([]domain.BookingWithConcert, error) {
	defer r.lock()()

	var out []domain.BookingWithConcert
	for _, b := range r.s.bookings {
		out = append(out, r.withConcert(b))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *bookingRepo) withConcert(b domain.Booking) domain.BookingWithConcert {
	item := domain.BookingWithConcert{Booking: b}
	if c, ok := r.s.concerts[b.ConcertID]; ok {
		item.ConcertName = c.Name
	}
	if u, ok := r.s.users[b.UserID]; ok {
		item.Username = u.Username
	}
	return item
}

func (r *bookingRepo) Create(ctx context.Context, b domain.Booking) (*domain.Booking, error) {
	defer r.lock()()

	for _, existing := range r.s.bookings {
		if existing.ConcertID == b.ConcertID && existing.UserID == b.UserID {
			return nil, repository.ErrConflict
		}
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	r.s.bookings[b.ID] = b
	return &b, nil
}

func (r *bookingRepo) Update(ctx context.Context, b domain.Booking) (*domain.Booking, error) {
	defer r.lock()()

	stored, ok := r.s.bookings[b.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	// Only status moves; identity and creation time stay put, like the
	// SQL UPDATE.
	stored.Status = b.Status
	stored.UpdatedAt = time.Now().UTC()
	r.s.bookings[b.ID] = stored
	return &stored, nil
}

func (r *bookingRepo) CancelAllByConcertID(ctx context.Context, concertID uuid.UUID) (int64, error) {
	defer r.lock()()

	var n int64
	now := time.Now().UTC()
	for id, b := range r.s.bookings {
		if b.ConcertID == concertID && b.Status == domain.BookingReserved {
			b.Status = domain.BookingCanceled
			b.UpdatedAt = now
			r.s.bookings[id] = b
			n++
		}
	}
	return n, nil
}

// --- UserRepo ---

type userRepo struct {
	s      *Store
	locked bool
}

func (r *userRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	defer r.lock()()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	defer r.lock()()

	for _, u := range r.s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	defer r.lock()()

	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return nil, repository.ErrConflict
		}
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.s.users[u.ID] = u
	return &u, nil
}

// --- Cache ---

// Cache is an in-process ports.Cache that records invalidation calls so
// tests can assert on cache coherence.
type Cache struct {
	mu            sync.Mutex
	entries       map[string]string
	Invalidations []string
	Deletes       []string
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *Cache) SetString(ctx context.Context, key, val string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = val
	return nil
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.entries, k)
		c.Deletes = append(c.Deletes, k)
	}
	return nil
}

func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Invalidations = append(c.Invalidations, pattern)

	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Contains reports whether a key currently has a value.
func (c *Cache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	return ok
}

// --- Events ---

// Events records published change notifications.
type Events struct {
	mu        sync.Mutex
	Published []uuid.UUID
}

func NewEvents() *Events {
	return &Events{}
}

func (e *Events) PublishConcertChanged(ctx context.Context, concertID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Published = append(e.Published, concertID)
	return nil
}
