package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/habitu/internal/cloudsync"
	"github.com/starford/habitu/internal/habitservice"
	"github.com/starford/habitu/internal/social"
)

// Syncer runs one reconciliation against the store.
type Syncer interface {
	Sync(ctx context.Context, store cloudsync.Store) cloudsync.Result
}

// Options configures the router. Nil Events, Rivals or Sync leave the
// matching routes unmounted.
type Options struct {
	AuthEnabled bool
	Token       string

	// Events is mounted at GET /events inside the auth group.
	Events http.Handler
	Rivals *social.Rivals
	Sync   Syncer

	UserID   string
	UserName string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *habitservice.Service, opts Options) chi.Router {
	h := NewHandler(svc, opts)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

	// Habits CRUD and logging.
	r.Get("/habits", h.ListHabits)
	r.Post("/habits", h.CreateHabit)
	r.Put("/habits/order", h.ReorderHabits)
	r.Get("/habits/{id}", h.GetHabit)
	r.Patch("/habits/{id}", h.UpdateHabit)
	r.Delete("/habits/{id}", h.DeleteHabit)
	r.Post("/habits/{id}/log", h.LogHabit)
	r.Post("/habits/{id}/toggle", h.ToggleHabit)
	r.Post("/habits/{id}/archive", h.ArchiveHabit)
	r.Post("/habits/{id}/restore", h.RestoreHabit)

	// Derived views.
	r.Get("/due", h.Due)
	r.Get("/stats", h.Stats)
	r.Get("/widgets", h.Widgets)

	// Settings and backup.
	r.Get("/settings", h.GetSettings)
	r.Patch("/settings", h.PatchSettings)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Post("/reset", h.Reset)

	if opts.Sync != nil {
		r.Post("/sync", h.Sync)
	}

	r.Get("/social/code", h.SnapshotCode)
	if opts.Rivals != nil {
		r.Get("/social/rivals", h.ListRivals)
		r.Post("/social/rivals", h.AddRival)
		r.Delete("/social/rivals/{id}", h.RemoveRival)
		r.Get("/social/league", h.League)
	}

	// SSE endpoint (protected by same auth middleware).
	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	return r
}
