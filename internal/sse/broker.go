// Package sse implements a Server-Sent Events broker for habit change notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StatsFunc produces the payload of stats.updated events.
type StatsFunc func() any

const statsEvent = "stats.updated"

func encodeFrame(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, payload)), nil
}

// hub is the state owned by the broker loop.
type hub struct {
	clients   map[chan []byte]struct{}
	lastStats time.Time
	// trailing is armed when a change arrives inside the throttle window, so
	// the burst still ends with fresh stats.
	trailing *time.Timer
}

func (h *hub) broadcast(frame []byte) {
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
			// slow client, drop
		}
	}
}

// Broker fans habit changes out to SSE clients. A single loop goroutine owns
// the hub; public methods hand it closures, so no mutexes are needed.
type Broker struct {
	statsMin time.Duration
	stats    StatsFunc

	ops     chan func(*hub)
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. stats.updated follows a change at most once
// per statsThrottle; stats may be nil for an empty payload.
func NewBroker(statsThrottle time.Duration, stats StatsFunc) *Broker {
	if statsThrottle <= 0 {
		statsThrottle = 2 * time.Second
	}
	if stats == nil {
		stats = func() any { return map[string]string{} }
	}

	b := &Broker{
		statsMin: statsThrottle,
		stats:    stats,
		ops:      make(chan func(*hub)),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	h := &hub{clients: make(map[chan []byte]struct{})}
	defer func() {
		if h.trailing != nil {
			h.trailing.Stop()
		}
		for ch := range h.clients {
			close(ch)
		}
		close(b.stopped)
	}()

	for {
		select {
		case <-b.stopCh:
			return
		case op := <-b.ops:
			op(h)
		}
	}
}

// do runs op on the loop. It reports false once the broker is closed, in
// which case op never ran.
func (b *Broker) do(op func(*hub)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.stopped:
		return false
	}
}

// refreshStats sends stats.updated now, or arms a trailing send when the
// last one is too recent. Loop only.
func (b *Broker) refreshStats(h *hub) {
	if len(h.clients) == 0 {
		return
	}
	wait := b.statsMin - time.Since(h.lastStats)
	if wait <= 0 {
		b.sendStats(h)
		return
	}
	if h.trailing != nil {
		return
	}
	h.trailing = time.AfterFunc(wait, func() {
		b.do(func(h *hub) {
			h.trailing = nil
			if len(h.clients) > 0 {
				b.sendStats(h)
			}
		})
	})
}

func (b *Broker) sendStats(h *hub) {
	h.lastStats = time.Now()
	frame, err := encodeFrame(Event{Type: statsEvent, Data: b.stats()})
	if err != nil {
		return
	}
	h.broadcast(frame)
}

// Close stops the loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. The channel is
// already closed when the broker is.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if !b.do(func(h *hub) { h.clients[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(h *hub) {
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	resp := make(chan int, 1)
	if !b.do(func(h *hub) { resp <- len(h.clients) }) {
		return 0
	}
	return <-resp
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	frame, err := encodeFrame(event)
	if err != nil {
		return
	}
	b.do(func(h *hub) { h.broadcast(frame) })
}

// PublishChange announces a habit change (kind such as "habit.logged") and
// refreshes stats, throttled.
func (b *Broker) PublishChange(kind, habitID string) {
	data := map[string]string{}
	if habitID != "" {
		data["id"] = habitID
	}
	frame, err := encodeFrame(Event{Type: kind, Data: data})
	if err != nil {
		return
	}
	b.do(func(h *hub) {
		h.broadcast(frame)
		b.refreshStats(h)
	})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
