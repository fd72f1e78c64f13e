package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "habit.created", Data: map[string]string{"id": "h1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: habit.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"h1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChange_StatsThrottle(t *testing.T) {
	b := NewBroker(500*time.Millisecond, func() any {
		return map[string]int{"score": 80}
	})
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First change should trigger stats.updated.
	b.PublishChange("habit.logged", "h1")
	// Second change immediately should NOT trigger another stats.updated.
	b.PublishChange("habit.archived", "h2")

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	statsCount := 0
	changeCount := 0
	var statsMsg string
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "stats.updated") {
				statsCount++
				statsMsg = s
			} else {
				changeCount++
			}
		default:
			break loop
		}
	}

	if changeCount != 2 {
		t.Errorf("change events = %d, want 2", changeCount)
	}
	if statsCount != 1 {
		t.Errorf("stats events = %d, want 1 (throttled)", statsCount)
	}
	if !strings.Contains(statsMsg, `"score":80`) {
		t.Errorf("stats payload missing: %q", statsMsg)
	}
}

func TestPublishChange_TrailingStatsAfterBurst(t *testing.T) {
	var mu sync.Mutex
	score := 10
	b := NewBroker(100*time.Millisecond, func() any {
		mu.Lock()
		defer mu.Unlock()
		return map[string]int{"score": score}
	})
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange("habit.logged", "h1")
	mu.Lock()
	score = 20
	mu.Unlock()
	b.PublishChange("habit.logged", "h1")
	b.PublishChange("habit.logged", "h2")

	var stats []string
	deadline := time.After(time.Second)
	for len(stats) < 2 {
		select {
		case msg := <-ch:
			if s := string(msg); strings.Contains(s, "stats.updated") {
				stats = append(stats, s)
			}
		case <-deadline:
			t.Fatalf("stats events = %d, want 2 (immediate + trailing)", len(stats))
		}
	}
	if !strings.Contains(stats[1], `"score":20`) {
		t.Errorf("trailing stats should carry the latest payload: %q", stats[1])
	}

	// the burst is covered by one trailing event
	select {
	case msg := <-ch:
		if strings.Contains(string(msg), "stats.updated") {
			t.Errorf("unexpected extra stats event: %q", msg)
		}
	case <-time.After(250 * time.Millisecond):
	}
}

func TestPublishChange_NoStatsWithoutClients(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	b := NewBroker(time.Millisecond, func() any {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})
	defer b.Close()

	b.PublishChange("habit.logged", "h1")
	_ = b.ClientCount() // round-trip through the loop
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("stats computed %d times with no clients", calls)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChange("habit.updated", "h1")
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: habit.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second, nil)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "habit.updated", Data: map[string]string{"id": "h1"}})
	b.PublishChange("habit.updated", "h1")
}
