package concerts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/repository"
	redisrepo "github.com/kirinyoku/stagepass/internal/repository/redis"
	"github.com/kirinyoku/stagepass/internal/service/ports"
)

// Service implements the admin-side concert use cases: creation and
// soft deletion.
type Service struct {
	uow    ports.UnitOfWork
	cache  ports.Cache
	events ports.Events
}

func New(uow ports.UnitOfWork, cache ports.Cache, events ports.Events) *Service {
	return &Service{
		uow:    uow,
		cache:  cache,
		events: events,
	}
}

type CreateInput struct {
	Name        string
	Description string
	TotalSeats  int
}

// Create validates the input and persists a new concert with zero reserved
// seats. The list cache is invalidated after commit.
//
// Returns:
//   - *domain.Concert: the persisted concert with generated ID and
//     timestamps.
//   - error: concerts.ErrNameRequired or concerts.ErrInvalidSeats.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Concert, error) {
	const op = "service.concerts.Create"

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNameRequired)
	}

	if in.TotalSeats <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSeats)
	}

	var result *domain.Concert

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx ports.Repos,
		after func(ports.AfterCommit),
	) error {
		created, err := tx.Concerts().Create(ctx, domain.Concert{
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			TotalSeats:  in.TotalSeats,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		result = created

		after(func(ctx context.Context) {
			_ = s.cache.InvalidatePattern(ctx, redisrepo.PatternConcertsAll())
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Delete cancels every RESERVED booking for the concert and then
// soft-deletes it, in that order and in one transaction, so a soft-deleted
// concert never has RESERVED bookings. The bulk cancel is a single
// statement, not a loop over Booking.Cancel.
//
// Returns:
//   - error: concerts.ErrConcertNotFound if the concert does not exist or
//     is already deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "service.concerts.Delete"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx ports.Repos,
		after func(ports.AfterCommit),
	) error {
		concert, err := tx.Concerts().FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrConcertNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		if _, err := tx.Bookings().CancelAllByConcertID(ctx, id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		deleted, err := concert.SoftDelete()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if _, err := tx.Concerts().Update(ctx, deleted); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidatePattern(ctx, redisrepo.PatternConcert(id))
			_ = s.cache.InvalidatePattern(ctx, redisrepo.PatternConcertsAll())
			_ = s.events.PublishConcertChanged(ctx, id)
		})

		return nil
	})
}
