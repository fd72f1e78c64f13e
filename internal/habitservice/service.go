// Package habitservice is the habit record store: the single owner of the
// habit collection and settings, persisting on every mutation.
package habitservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/checksum"
	"github.com/starford/habitu/internal/habit"
	"github.com/starford/habitu/internal/metrics"
	"github.com/starford/habitu/internal/storage"
)

// Change kinds reported to observers.
const (
	KindCreated   = "habit.created"
	KindUpdated   = "habit.updated"
	KindLogged    = "habit.logged"
	KindArchived  = "habit.archived"
	KindRestored  = "habit.restored"
	KindDeleted   = "habit.deleted"
	KindReordered = "habits.reordered"
	KindImported  = "habits.imported"
	KindReloaded  = "habits.reloaded"
	KindSynced    = "habits.synced"
	KindReset     = "habits.reset"
	KindSettings  = "settings.updated"
)

// Change describes one applied mutation. HabitID is empty for collection-wide changes.
type Change struct {
	Kind    string `json:"kind"`
	HabitID string `json:"id,omitempty"`
}

// Observer is notified after a mutation is applied, outside the store lock.
type Observer func(Change)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observers = append(s.observers, o) }
}

// Service owns the habit collection. Mutations are serialized by mu; reads
// copy the collection so derivations never see a partially applied change.
type Service struct {
	store  storage.Provider
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger

	mu       sync.RWMutex
	habits   []habit.Habit
	settings habit.Settings
	version  uint64

	written map[string]string // key -> checksum of the last blob this process saved
	failing map[string]bool   // keys whose last save failed

	observers []Observer
}

// New creates a Service backed by store. Call Load before serving.
func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		now:      time.Now,
		loc:      time.Local,
		logger:   slog.Default(),
		habits:   []habit.Habit{},
		settings: habit.DefaultSettings(),
		written:  make(map[string]string),
		failing:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer after construction. Not safe to call
// concurrently with mutations.
func (s *Service) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// Now returns the service clock's current instant.
func (s *Service) Now() time.Time {
	return s.now()
}

// Today returns the current calendar date in the configured location.
func (s *Service) Today() time.Time {
	return habit.Midnight(s.now().In(s.loc))
}

// Load reads habits and settings from storage. Missing blobs start empty.
// A read failure is returned as a PersistenceError; the store stays usable
// in memory.
func (s *Service) Load(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if data, err := s.load(storage.KeyHabits); err != nil {
		errs = append(errs, err)
	} else if data != nil {
		habits, derr := habit.DecodeCollection(data)
		if derr != nil {
			s.logger.Warn("habits blob unreadable, starting empty", slog.String("error", derr.Error()))
		} else {
			s.habits = ensureIDs(habits)
			s.written[storage.KeyHabits] = checksum.Sum(data)
		}
	}
	if data, err := s.load(storage.KeySettings); err != nil {
		errs = append(errs, err)
	} else if data != nil {
		settings, derr := habit.DecodeSettings(data)
		if derr != nil {
			s.logger.Warn("settings blob unreadable, using defaults", slog.String("error", derr.Error()))
		}
		s.settings = settings
		s.written[storage.KeySettings] = checksum.Sum(data)
	}
	s.version++
	return errors.Join(errs...)
}

// load returns nil data when the key is absent.
func (s *Service) load(key string) ([]byte, error) {
	data, err := s.store.Load(key)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.failing[key] = true
		metrics.IncrementPersistenceError(key)
		return nil, &apperr.PersistenceError{Op: "load", Key: key, Err: err}
	}
	return data, nil
}

// Reload re-reads key after an external change on disk. Writes made by this
// process are recognized by checksum and ignored. The read happens under mu
// so no save can land between it and the checksum comparison.
func (s *Service) Reload(_ context.Context, key string) {
	if key != storage.KeyHabits && key != storage.KeySettings {
		return
	}

	s.mu.Lock()
	data, err := s.store.Load(key)
	if err != nil {
		s.mu.Unlock()
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("reload failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return
	}
	sum := checksum.Sum(data)
	if s.written[key] == sum {
		s.mu.Unlock()
		return
	}
	var change Change
	switch key {
	case storage.KeyHabits:
		habits, derr := habit.DecodeCollection(data)
		if derr != nil {
			s.mu.Unlock()
			s.logger.Warn("external habits edit rejected", slog.String("error", derr.Error()))
			return
		}
		s.habits = ensureIDs(habits)
		s.version++
		change = Change{Kind: KindReloaded}
	case storage.KeySettings:
		settings, derr := habit.DecodeSettings(data)
		if derr != nil {
			s.mu.Unlock()
			s.logger.Warn("external settings edit rejected", slog.String("error", derr.Error()))
			return
		}
		s.settings = settings
		change = Change{Kind: KindSettings}
	}
	s.written[key] = sum
	s.mu.Unlock()

	s.logger.Info("reloaded after external change", slog.String("key", key))
	s.notify(change)
}

// Degraded reports whether the last save of any blob failed; the store then
// serves in-memory state only.
func (s *Service) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.failing) > 0
}

// Snapshot returns a copy of the whole collection (archived included) and
// the version it was taken at.
func (s *Service) Snapshot() ([]habit.Habit, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return habit.CloneAll(s.habits), s.version
}

// ApplyMerged replaces the collection with merged only if nothing changed
// since version was taken. It reports whether the replacement happened.
func (s *Service) ApplyMerged(_ context.Context, merged []habit.Habit, version uint64) bool {
	s.mu.Lock()
	if s.version != version {
		s.mu.Unlock()
		return false
	}
	s.habits = ensureIDs(habit.CloneAll(merged))
	s.version++
	s.persistHabits()
	s.mu.Unlock()

	metrics.IncrementMutation("sync")
	s.notify(Change{Kind: KindSynced})
	return true
}

// persistHabits saves the collection. Must be called with mu held.
func (s *Service) persistHabits() {
	data, err := habit.EncodeCollection(s.habits)
	if err != nil {
		s.logger.Error("encode habits", slog.String("error", err.Error()))
		return
	}
	s.save(storage.KeyHabits, data)
}

// persistSettings saves the settings. Must be called with mu held.
func (s *Service) persistSettings() {
	data, err := encodeJSON(s.settings)
	if err != nil {
		s.logger.Error("encode settings", slog.String("error", err.Error()))
		return
	}
	s.save(storage.KeySettings, data)
}

// save writes a blob. Failures are logged and mark the store degraded; the
// in-memory state stays authoritative.
func (s *Service) save(key string, data []byte) {
	s.written[key] = checksum.Sum(data)
	if err := s.store.Save(key, data); err != nil {
		perr := &apperr.PersistenceError{Op: "save", Key: key, Err: err}
		s.failing[key] = true
		metrics.IncrementPersistenceError(key)
		s.logger.Error("persist failed, serving from memory", slog.String("error", perr.Error()))
		return
	}
	delete(s.failing, key)
}

func (s *Service) notify(c Change) {
	for _, o := range s.observers {
		o(c)
	}
}

// mutate applies fn to the habit with id under the write lock, bumps the
// version, persists and notifies. fn returns the change kind.
func (s *Service) mutate(id, op string, fn func(h *habit.Habit) (string, error)) (habit.Habit, error) {
	s.mu.Lock()
	i := habit.IndexByID(s.habits, id)
	if i < 0 {
		s.mu.Unlock()
		return habit.Habit{}, fmt.Errorf("habit %s: %w", id, apperr.ErrNotFound)
	}
	kind, err := fn(&s.habits[i])
	if err != nil {
		s.mu.Unlock()
		return habit.Habit{}, err
	}
	out := s.habits[i].Clone()
	s.version++
	s.persistHabits()
	s.mu.Unlock()

	metrics.IncrementMutation(op)
	s.notify(Change{Kind: kind, HabitID: id})
	return out, nil
}
