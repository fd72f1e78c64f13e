package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/habitservice"
	"github.com/starford/habitu/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openStore opens the configured blob store. fsStore is nil for the sqlite
// driver, which has nothing to watch.
func openStore(cfg StorageConfig) (store storage.Provider, fsStore *storage.FS, closeFn func(), err error) {
	switch cfg.Driver {
	case StorageDriverSQLite:
		db, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init storage: %w", err)
		}
		return db, nil, func() { _ = db.Close() }, nil
	default:
		fs, err := storage.NewFS(cfg.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init storage: %w", err)
		}
		return fs, fs, func() {}, nil
	}
}

// loadService creates the record store and loads saved data. A persistence
// failure is logged and the service starts degraded on in-memory state.
func loadService(ctx context.Context, cfg *Config, store storage.Provider, logger *slog.Logger) (*habitservice.Service, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	svc := habitservice.New(store,
		habitservice.WithLocation(loc),
		habitservice.WithLogger(logger),
	)
	if err := svc.Load(ctx); err != nil {
		var perr *apperr.PersistenceError
		if !errors.As(err, &perr) {
			return nil, err
		}
		logger.Error("initial load failed, serving in-memory state", slog.String("error", err.Error()))
	}
	return svc, nil
}

// Export writes the backup document of the configured store to w.
func Export(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.newLogger()

	store, _, closeStore, err := openStore(app.config.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := loadService(ctx, app.config, store, logger)
	if err != nil {
		return err
	}
	if svc.Degraded() {
		return fmt.Errorf("export: storage unreadable")
	}
	return writeIndented(w, svc.Export(ctx))
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
