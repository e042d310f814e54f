// Package app wires the cart store service: storage backend, HTTP router
// and server lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mercanto/cartsync/internal/server/config"
	"github.com/mercanto/cartsync/internal/server/handlers"
	"github.com/mercanto/cartsync/internal/server/middleware"
	"github.com/mercanto/cartsync/internal/server/storage"
	redisstore "github.com/mercanto/cartsync/internal/server/storage/redis"
	"github.com/mercanto/cartsync/internal/server/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// App is the assembled cart store service.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	cleanup func() error
}

// New builds the service from configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, cleanup, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	router := NewRouter(store, cfg, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		cleanup: cleanup,
	}, nil
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("cart store listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down cart store")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(store storage.CartStorage, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.LoggingWithSkip(logger, []string{"/health", "/metrics"}))
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateLimitWindow, logger))

	healthHandler := handlers.NewHealthHandler(logger)
	syncHandler := handlers.NewSyncHandler(logger, store)
	deviceHandler := handlers.NewDeviceHandler(logger, store)

	r.Get("/health", healthHandler.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/cart/sync", syncHandler.HandlePush)
	r.Get("/cart/state", syncHandler.HandlePull)
	r.Post("/cart/sync/device", deviceHandler.HandleRegister)
	r.Get("/cart/sync/device", deviceHandler.HandleList)

	return r
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.CartStorage, func() error, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		store, err := sqlite.New(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, store.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redisstore.New(client, cfg.CartTTL()), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.StorageBackend)
	}
}
