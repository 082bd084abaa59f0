package service

import (
	"github.com/kirinyoku/stagepass/internal/service/auth"
	"github.com/kirinyoku/stagepass/internal/service/booking"
	"github.com/kirinyoku/stagepass/internal/service/concerts"
	"github.com/kirinyoku/stagepass/internal/service/ports"
	"github.com/kirinyoku/stagepass/internal/service/query"
)

type Services struct {
	Auth     *auth.Service
	Booking  *booking.Service
	Concerts *concerts.Service
	Query    *query.Service
}

type Config struct {
	Auth  auth.Config
	Query query.Config
}

func NewServices(
	repos ports.Repos,
	uow ports.UnitOfWork,
	cache ports.Cache,
	events ports.Events,
	limiter ports.Limiter,
	cfg Config,
) *Services {
	return &Services{
		Auth:     auth.New(repos, cfg.Auth),
		Booking:  booking.New(uow, cache, events, limiter),
		Concerts: concerts.New(uow, cache, events),
		Query:    query.New(repos, cache, cfg.Query),
	}
}
