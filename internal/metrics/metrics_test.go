package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncrementMutation(t *testing.T) {
	before := testutil.ToFloat64(MutationCount.WithLabelValues("create"))
	IncrementMutation("create")
	after := testutil.ToFloat64(MutationCount.WithLabelValues("create"))
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestRecordSync(t *testing.T) {
	before := testutil.ToFloat64(SyncCount.WithLabelValues("merged"))
	RecordSync("merged", 20*time.Millisecond)
	if got := testutil.ToFloat64(SyncCount.WithLabelValues("merged")); got != before+1 {
		t.Errorf("sync counter = %v, want %v", got, before+1)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/habits/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/habits/abc", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `path="/habits/{id}"`) {
		t.Errorf("route pattern label missing from metrics output")
	}
	if strings.Contains(body, `path="/habits/abc"`) {
		t.Errorf("raw path should not be used as label")
	}
}
