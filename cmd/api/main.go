// @title        Webinar System API
// @version      1.0
// @description  Organize webinars and manage their seat capacity.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/webinar-system/internal/api"
	"github.com/99minutos/webinar-system/internal/core/ports"
	"github.com/99minutos/webinar-system/internal/core/service"
	"github.com/99minutos/webinar-system/internal/infrastructure/db/memory"
	"github.com/99minutos/webinar-system/internal/infrastructure/db/mongo"
	"github.com/99minutos/webinar-system/internal/infrastructure/db/postgres"
	"github.com/99minutos/webinar-system/internal/infrastructure/db/redis"
	"github.com/99minutos/webinar-system/internal/infrastructure/generator"
	"github.com/99minutos/webinar-system/internal/infrastructure/http/handlers"
	"github.com/99minutos/webinar-system/internal/infrastructure/queue"
	"github.com/99minutos/webinar-system/internal/pkg/config"
	"github.com/99minutos/webinar-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "webinar-system",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var checks []handlers.Check

	repo, closeRepo, repoChecks, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()
	checks = append(checks, repoChecks...)

	deps := api.Dependencies{
		JWTSecret: cfg.Identity.JWTSecret,
		Log:       logger.ForComponent("http"),
	}

	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		// Left unset otherwise: a typed nil would not read as disabled.
		deps.Idempotency = redis.NewIdempotencyStore(rdb, cfg.Seats.IdempotencyTTL)
		deps.SeatLocker = redis.NewWebinarLock(rdb, cfg.Seats.LockTTL)
		checks = append(checks, handlers.RedisCheck(rdb))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	serviceLog := logger.ForComponent("service")
	deps.Organize = service.NewOrganizeWebinarsService(
		repo,
		generator.NewUUIDGenerator(),
		generator.NewSystemClock(),
		serviceLog,
	)

	dispatcher := queue.NewDispatcher(cfg.Seats.Workers, service.NewChangeSeatsService(repo, serviceLog), logger.ForComponent("dispatcher"))
	// Workers outlive the signal so in-flight requests drain during Shutdown.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher.Start(workerCtx)
	deps.ChangeSeats = dispatcher
	deps.HealthChecks = checks

	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openRepository connects the store selected by STORAGE_DRIVER.
func openRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.WebinarRepository, func(), []handlers.Check, error) {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		repo := mongo.NewWebinarRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = mongo.Disconnect(client, 0)
			return nil, nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info().Str("db", cfg.Mongo.Database).Msg("mongo connected")
		closeFn := func() { _ = mongo.Disconnect(client, shutdownTimeout) }
		return repo, closeFn, []handlers.Check{handlers.MongoCheck(db)}, nil

	case config.StoragePostgres:
		if err := postgres.Migrate(cfg.Postgres.DSN, log); err != nil {
			return nil, nil, nil, err
		}
		pool, err := postgres.NewPool(ctx, postgres.Config{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info().Msg("postgres connected")
		return postgres.NewWebinarRepository(pool), pool.Close, []handlers.Check{handlers.PostgresCheck(pool)}, nil

	default:
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return memory.NewWebinarRepository(), func() {}, nil, nil
	}
}
