// Package metrics exposes Prometheus metrics for store mutations, sync runs and HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Record store mutations by operation.
	MutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitu_mutations_total",
			Help: "Total number of habit store mutations",
		},
		[]string{"op"},
	)

	// Failed blob saves/loads by key.
	PersistenceErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitu_persistence_errors_total",
			Help: "Total number of storage read/write failures",
		},
		[]string{"key"},
	)

	// Reconciliation outcome: merged, first_sync, fetch_failed, push_failed, skipped.
	SyncCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitu_sync_total",
			Help: "Total number of cloud reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "habitu_sync_duration_seconds",
			Help:    "Cloud reconciliation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habitu_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// IncrementMutation counts a store mutation.
func IncrementMutation(op string) {
	MutationCount.WithLabelValues(op).Inc()
}

// IncrementPersistenceError counts a storage failure for key.
func IncrementPersistenceError(key string) {
	PersistenceErrorCount.WithLabelValues(key).Inc()
}

// RecordSync records a reconciliation outcome and its duration.
func RecordSync(outcome string, duration time.Duration) {
	SyncCount.WithLabelValues(outcome).Inc()
	SyncDuration.Observe(duration.Seconds())
}

// RecordHTTPRequestDuration records one HTTP request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// Handler serves the default registry (GET /metrics).
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request durations labelled by the chi route pattern,
// so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordHTTPRequestDuration(r.Method, path, strconv.Itoa(status), time.Since(start))
	})
}
