package cloudsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/habit"
	"github.com/starford/habitu/internal/lock"
	"github.com/starford/habitu/internal/metrics"
)

// Reconciliation outcomes.
const (
	OutcomeFirstSync   = "first_sync"
	OutcomeMerged      = "merged"
	OutcomeFetchFailed = "fetch_failed"
	OutcomePushFailed  = "push_failed"
	OutcomeLockFailed  = "lock_failed"
	OutcomeSkipped     = "skipped" // local collection changed while syncing
)

const defaultTimeout = 10 * time.Second

// Store is the part of the record store the reconciler needs.
type Store interface {
	Snapshot() ([]habit.Habit, uint64)
	ApplyMerged(ctx context.Context, merged []habit.Habit, version uint64) bool
	BestStreak(ctx context.Context) int
}

// Result describes one Sync run.
type Result struct {
	Outcome string `json:"outcome"`
	Added   int    `json:"added"`
	Applied bool   `json:"applied"`
}

// Reconciler runs reconciliations for one user, at most one at a time.
type Reconciler struct {
	transport Transport
	locker    lock.Locker
	timeout   time.Duration
	logger    *slog.Logger
	userID    string
	userName  string
}

// NewReconciler creates a Reconciler. A nil locker means an in-process lock.
func NewReconciler(t Transport, locker lock.Locker, userID, userName string, timeout time.Duration, logger *slog.Logger) *Reconciler {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Reconciler{
		transport: t,
		locker:    locker,
		timeout:   timeout,
		logger:    logger,
		userID:    userID,
		userName:  userName,
	}
}

// Reconcile fetches the remote snapshot, merges it with local and pushes the
// result. On any transport failure it returns local untouched; it never
// returns an error.
func (r *Reconciler) Reconcile(ctx context.Context, local []habit.Habit) ([]habit.Habit, string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	remote, found, err := r.transport.FetchSnapshot(ctx, r.userID)
	if err != nil {
		r.logTransport(&apperr.TransportError{Op: "fetch", Err: err})
		return local, OutcomeFetchFailed
	}

	outcome := OutcomeMerged
	merged := local
	if found {
		merged = Merge(local, remote)
	} else {
		outcome = OutcomeFirstSync
	}

	if err := r.transport.PushSnapshot(ctx, r.userID, merged); err != nil {
		r.logTransport(&apperr.TransportError{Op: "push", Err: err})
		return local, OutcomePushFailed
	}
	return merged, outcome
}

// Sync reconciles the store's current collection and applies the result if
// the store did not change in the meantime.
func (r *Reconciler) Sync(ctx context.Context, store Store) Result {
	start := time.Now()
	res := r.sync(ctx, store)
	metrics.RecordSync(res.Outcome, time.Since(start))
	r.logger.Info("sync finished",
		slog.String("user_id", r.userID),
		slog.String("outcome", res.Outcome),
		slog.Int("added", res.Added),
		slog.Bool("applied", res.Applied),
		slog.Duration("duration", time.Since(start)))
	return res
}

func (r *Reconciler) sync(ctx context.Context, store Store) Result {
	lockCtx, cancel := context.WithTimeout(ctx, r.timeout)
	unlock, err := r.locker.Lock(lockCtx, "sync:"+r.userID)
	cancel()
	if err != nil {
		r.logger.Warn("sync lock not acquired", slog.String("user_id", r.userID), slog.String("error", err.Error()))
		return Result{Outcome: OutcomeLockFailed}
	}
	defer unlock()

	local, version := store.Snapshot()
	merged, outcome := r.Reconcile(ctx, local)
	res := Result{Outcome: outcome, Added: len(merged) - len(local)}

	if res.Added > 0 {
		if !store.ApplyMerged(ctx, merged, version) {
			res.Outcome = OutcomeSkipped
			return res
		}
		res.Applied = true
	}

	if outcome == OutcomeMerged || outcome == OutcomeFirstSync {
		r.pushStats(ctx, store)
	}
	return res
}

// pushStats publishes the best current streak; failures are only logged.
func (r *Reconciler) pushStats(ctx context.Context, store Store) {
	sp, ok := r.transport.(StatsPusher)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	stats := UserStats{Name: r.userName, Streak: store.BestStreak(ctx)}
	if err := sp.PushStats(ctx, r.userID, stats); err != nil {
		r.logTransport(&apperr.TransportError{Op: "push stats", Err: err})
	}
}

func (r *Reconciler) logTransport(err error) {
	r.logger.Warn("sync transport failed, keeping local state",
		slog.String("user_id", r.userID),
		slog.String("error", err.Error()))
}
