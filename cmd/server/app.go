package main

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/estate/internal/cache"
	"github.com/stwalsh4118/estate/internal/clock"
	"github.com/stwalsh4118/estate/internal/config"
	"github.com/stwalsh4118/estate/internal/database"
	"github.com/stwalsh4118/estate/internal/logger"
	"github.com/stwalsh4118/estate/internal/repository"
	"github.com/stwalsh4118/estate/internal/services"
)

// app holds the process-wide dependencies shared by the commands.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.Database
	redis *cache.Redis
	store repository.Store
	cache cache.Cache
}

// loadApp reads the configuration and creates the logger.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &app{
		cfg: cfg,
		log: logger.New(cfg.Server.Env, cfg.Server.LogLevel),
	}, nil
}

// connectDatabase opens the PostgreSQL pool. It is a no-op for the memory driver.
func (a *app) connectDatabase(ctx context.Context) error {
	if a.cfg.Database.Driver != config.StorePostgres {
		return nil
	}

	db, err := database.NewPostgresPool(ctx, a.cfg.Database)
	if err != nil {
		return err
	}
	a.db = db

	a.log.Info("Database connection established", map[string]interface{}{
		"host":     a.cfg.Database.Host,
		"port":     a.cfg.Database.Port,
		"database": a.cfg.Database.Name,
		"pool_min": a.cfg.Database.PoolMin,
		"pool_max": a.cfg.Database.PoolMax,
	})
	return nil
}

// open connects every backend and selects the record store and cache.
func (a *app) open(ctx context.Context, migrate bool) error {
	if err := a.connectDatabase(ctx); err != nil {
		return err
	}

	if a.db != nil {
		if migrate {
			if err := database.Migrate(ctx, a.db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		a.store = repository.NewPostgresStore(a.db)
	} else {
		a.log.Warn("Using in-memory record store; data is lost on exit", nil)
		a.store = repository.NewMemoryStore()
	}

	a.cache = cache.Noop{}
	if a.cfg.Cache.Enabled() {
		a.redis = cache.NewRedis(a.cfg.Cache)
		if err := a.redis.Ping(ctx); err != nil {
			// The cache is optional; reads fall through to the store.
			a.log.Warn("Redis unreachable at startup", map[string]interface{}{
				"addr":  a.cfg.Cache.Addr,
				"error": err.Error(),
			})
		}
		a.cache = a.redis
	}

	return nil
}

// deps returns the service dependencies built from the configuration.
func (a *app) deps() services.Deps {
	return services.Deps{
		Store: a.store,
		Cache: a.cache,
		Clock: clock.System{},
		Log:   a.log,
		Settings: services.Settings{
			AvailabilityDays:  a.cfg.Estate.AvailabilityDays,
			OfferValidityDays: a.cfg.Estate.OfferValidityDays,
			CacheTTL:          a.cfg.Cache.TTL,
		},
	}
}

// close releases every backend connection.
func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close redis client", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
