// Package testutil provides shared test helpers: blob stores, clocks and loggers.
package testutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/storage"
)

// Wednesday is a fixed evening used as "now" across tests (2026-03-04 18:30 UTC).
var Wednesday = time.Date(2026, 3, 4, 18, 30, 0, 0, time.UTC)

// Clock returns a time source frozen at t.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Logger returns a logger that only prints errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestStore creates a temporary FS blob store.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// ErrInjected is returned by MemStore when failures are switched on.
var ErrInjected = errors.New("injected storage failure")

// MemStore is an in-memory storage.Provider with switchable failures.
type MemStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	fail  bool
	saves int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

// Load implements storage.Provider.
func (m *MemStore) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, ErrInjected
	}
	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("mem: %s: %w", key, apperr.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Save implements storage.Provider.
func (m *MemStore) Save(key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return ErrInjected
	}
	m.saves++
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// SetFailing switches injected failures on or off.
func (m *MemStore) SetFailing(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

// Saves returns the number of successful saves.
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Blob returns the raw bytes saved under key.
func (m *MemStore) Blob(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blobs[key]
}
