// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/starford/habitu/internal/api"
	"github.com/starford/habitu/internal/cloud"
	"github.com/starford/habitu/internal/cloudsync"
	"github.com/starford/habitu/internal/habitservice"
	"github.com/starford/habitu/internal/lock"
	"github.com/starford/habitu/internal/metrics"
	"github.com/starford/habitu/internal/social"
	"github.com/starford/habitu/internal/sse"
	"github.com/starford/habitu/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.newLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.Bool("sync_enabled", cfg.Sync.Enabled),
		slog.Bool("cloud_enabled", cfg.Cloud.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize storage and the record store.
	store, fsStore, closeStore, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := loadService(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	// SSE broker: every change is published, stats follow at most once per throttle.
	broker := sse.NewBroker(cfg.Events.StatsThrottle, func() any {
		return svc.GlobalStats(context.Background())
	})
	defer broker.Close()
	svc.Subscribe(func(c habitservice.Change) {
		broker.PublishChange(c.Kind, c.HabitID)
	})

	rivals := social.NewRivals(store, time.Now, logger)

	// Optional cloud sync.
	var (
		reconciler *cloudsync.Reconciler
		worker     *cloudsync.Worker
	)
	if cfg.Sync.Enabled {
		var locker lock.Locker = lock.NewLocal()
		if cfg.Redis.Enabled() {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer rdb.Close()
			locker = lock.Chain{locker, lock.NewRedis(rdb, 3*cfg.Sync.Timeout, logger)}
		}
		transport := cloudsync.NewHTTPTransport(cfg.Sync.RemoteURL, cfg.Sync.JWTSecret,
			&http.Client{Timeout: cfg.Sync.Timeout})
		reconciler = cloudsync.NewReconciler(transport, locker, cfg.User.ID, cfg.User.Name, cfg.Sync.Timeout, logger)
		worker = cloudsync.NewWorker(reconciler, svc, cfg.Sync.Debounce, logger)
		svc.Subscribe(func(c habitservice.Change) {
			// Applying a merge must not schedule another sync.
			if c.Kind != habitservice.KindSynced && c.Kind != habitservice.KindSettings {
				worker.Trigger()
			}
		})
	}

	apiOpts := api.Options{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
		Rivals:      rivals,
		UserID:      cfg.User.ID,
		UserName:    cfg.User.Name,
	}
	if reconciler != nil {
		apiOpts.Sync = reconciler
	}
	apiRouter := api.NewRouter(svc, apiOpts)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if svc.Degraded() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Cloud snapshot API for other instances.
	if cfg.Cloud.Enabled {
		repo, err := cloud.Open(cfg.Cloud.SQLitePath)
		if err != nil {
			return fmt.Errorf("init cloud repo: %w", err)
		}
		defer repo.Close()
		r.Mount("/cloud", cloud.NewRouter(repo, cfg.Cloud.JWTSecret, logger))
	}

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the store when its files are edited outside the process.
	if fsStore != nil && cfg.Storage.Watch {
		g.Go(func() error {
			err := storage.Watch(gCtx, fsStore, logger, 0, func(key string) {
				svc.Reload(gCtx, key)
			})
			if err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if worker != nil {
		g.Go(func() error {
			return worker.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group's context so the watcher and sync worker
// stop once the HTTP server is down.
var errShutdown = errors.New("shutdown")
