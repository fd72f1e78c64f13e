package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ReportsChangedKey(t *testing.T) {
	s := tempStore(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	counts := map[string]int{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, s, logger, 50*time.Millisecond, func(key string) {
			mu.Lock()
			counts[key]++
			mu.Unlock()
		})
	}()

	time.Sleep(100 * time.Millisecond)

	// several writes in a burst collapse into one callback
	for i := 0; i < 3; i++ {
		_ = s.Save(KeyHabits, []byte("[]"))
	}
	_ = os.WriteFile(filepath.Join(s.Root(), "ignored.txt"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return counts[KeyHabits] > 0
	}, "habits change not reported")

	mu.Lock()
	if len(counts) != 1 {
		t.Errorf("unexpected keys reported: %v", counts)
	}
	mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop on cancel")
	}
}
