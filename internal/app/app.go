package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/stagepass/internal/config"
	"github.com/kirinyoku/stagepass/internal/postgres"
	"github.com/kirinyoku/stagepass/internal/redis"
	postgresrepo "github.com/kirinyoku/stagepass/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/stagepass/internal/repository/redis"
	"github.com/kirinyoku/stagepass/internal/service"
	"github.com/kirinyoku/stagepass/internal/service/auth"
	"github.com/kirinyoku/stagepass/internal/service/ports"
	"github.com/kirinyoku/stagepass/internal/service/query"
	httpgin "github.com/kirinyoku/stagepass/internal/transport/http/gin"
	"github.com/kirinyoku/stagepass/internal/uow"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb, logger)
	pubsub := redisrepo.NewConcertsPubSub(rdb)
	unit := uow.NewUoW(store)

	var limiter ports.Limiter
	if cfg.Limiter.Enabled {
		limiter = redisrepo.NewFixedWindowLimiter(rdb, "rl", cfg.Limiter.Limit, cfg.Limiter.Window)
	}

	// Initialize services
	services := service.NewServices(store, unit, cache, pubsub, limiter, service.Config{
		Auth: auth.Config{
			Secret:   cfg.Auth.JWTSecret,
			TokenTTL: cfg.Auth.TokenTTL,
		},
		Query: query.Config{
			ConcertTTL: cfg.Cache.ConcertTTL,
		},
	})

	// Initialize Gin router
	router := httpgin.NewRouter(services, cfg.Auth.JWTSecret, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
