package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neexbeast/vacation-planner/internal/api"
	"github.com/neexbeast/vacation-planner/internal/config"
	"github.com/neexbeast/vacation-planner/internal/session"
	"github.com/neexbeast/vacation-planner/internal/storage"
	"github.com/neexbeast/vacation-planner/internal/vacation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// Create tables and seed the packing lists.
	if err := storage.RunMigrations(ctx, pool, storage.Migrations()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied")

	// Connect to Redis.
	redisClient, err := session.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// Wire dependencies.
	packing := storage.NewPackingRepository(pool)
	sessions := session.NewStore(redisClient)
	planner := vacation.NewPlanner(cfg.Upstream, packing, log)

	views, err := api.NewViews()
	if err != nil {
		return fmt.Errorf("loading views: %w", err)
	}
	handlers := api.NewHandlers(planner, packing, views, log)

	router := api.NewRouter(handlers, api.RouterDeps{
		Sessions:           sessions,
		DB:                 pool,
		Redis:              sessions,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Log:                log,
	})

	srv := newServer(cfg.Port, router)

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// planWriteTimeout covers the longest sequential upstream chain of a plan
// (geocode, country, rates) plus the packing lookup and rendering.
const planWriteTimeout = 3*vacation.UpstreamTimeout + 15*time.Second

func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: planWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
}
