package cloudsync

import (
	"context"
	"log/slog"
	"time"
)

const defaultDebounce = 2 * time.Second

// Worker runs a reconciliation after a quiet period following the last
// Trigger, and once at start.
type Worker struct {
	reconciler *Reconciler
	store      Store
	debounce   time.Duration
	logger     *slog.Logger
	trigger    chan struct{}
}

// NewWorker creates a debounced sync worker.
func NewWorker(r *Reconciler, store Store, debounce time.Duration, logger *slog.Logger) *Worker {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Worker{
		reconciler: r,
		store:      store,
		debounce:   debounce,
		logger:     logger,
		trigger:    make(chan struct{}, 1),
	}
}

// Trigger schedules a sync. It never blocks.
func (w *Worker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run processes triggers until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("sync worker: started", slog.Duration("debounce", w.debounce))
	w.reconciler.Sync(ctx, w.store)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("sync worker: stopped")
			return nil
		case <-w.trigger:
			timer.Reset(w.debounce)
		case <-timer.C:
			w.reconciler.Sync(ctx, w.store)
		}
	}
}
