package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/habitu/internal/checksum"
	"github.com/starford/habitu/internal/habit"
	"github.com/starford/habitu/internal/habitservice"
	"github.com/starford/habitu/internal/social"
)

// Handler holds API route handlers.
type Handler struct {
	svc  *habitservice.Service
	opts Options
}

// NewHandler creates a new Handler.
func NewHandler(svc *habitservice.Service, opts Options) *Handler {
	return &Handler{svc: svc, opts: opts}
}

// ListHabits handles GET /api/habits.
//
//	@Summary		List habits with their derived state
//	@Tags			habits
//	@Produce		json
//	@Param			archived	query		bool	false	"Include archived habits"
//	@Success		200			{object}	HabitListResponse
//	@Security		BearerAuth
//	@Router			/habits [get]
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	archived, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	items := h.svc.Statuses(r.Context(), archived)
	writeJSON(w, http.StatusOK, HabitListResponse{Habits: items, Total: len(items)})
}

// GetHabit handles GET /api/habits/{id}.
//
//	@Summary		Get a habit with streak, strength and today's state
//	@Tags			habits
//	@Produce		json
//	@Param			id	path		string	true	"Habit ID"
//	@Success		200	{object}	HabitStatus
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/{id} [get]
func (h *Handler) GetHabit(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get habit", err)
		return
	}
	setETag(w, st.Habit)
	writeJSON(w, http.StatusOK, st)
}

// CreateHabit handles POST /api/habits.
//
//	@Summary		Create a habit
//	@Tags			habits
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateHabitRequest	true	"Habit to create"
//	@Success		201		{object}	habit.Habit
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits [post]
func (h *Handler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var req CreateHabitRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	created, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, "create habit", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateHabit handles PATCH /api/habits/{id}.
//
//	@Summary		Edit habit fields with optimistic concurrency
//	@Tags			habits
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Habit ID"
//	@Param			If-Match	header	string				false	"ETag from a previous read"
//	@Param			body	body		UpdateHabitRequest	true	"Fields to change"
//	@Success		200		{object}	habit.Habit
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/{id} [patch]
func (h *Handler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	var req UpdateHabitRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	req.IfMatch = checksum.ParseETag(r.Header.Get("If-Match"))

	updated, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, "update habit", err)
		return
	}
	setETag(w, updated)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteHabit handles DELETE /api/habits/{id}.
//
//	@Summary		Delete a habit and its history
//	@Tags			habits
//	@Param			id	path	string	true	"Habit ID"
//	@Success		204	"Habit deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/{id} [delete]
func (h *Handler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete habit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LogHabit handles POST /api/habits/{id}/log.
//
//	@Summary		Log progress for a day (defaults to today)
//	@Tags			habits
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Habit ID"
//	@Param			body	body		LogRequest	false	"Day and amount"
//	@Success		200		{object}	habit.Habit
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/{id}/log [post]
func (h *Handler) LogHabit(w http.ResponseWriter, r *http.Request) {
	req := LogRequest{Amount: 1}
	if !decodeBody(w, r, &req, true) {
		return
	}
	day, err := habitservice.ParseDay(req.Date)
	if err != nil {
		writeError(w, "log habit", err)
		return
	}
	logged, err := h.svc.Log(r.Context(), chi.URLParam(r, "id"), day, req.Amount)
	if err != nil {
		writeError(w, "log habit", err)
		return
	}
	writeJSON(w, http.StatusOK, logged)
}

// ToggleHabit handles POST /api/habits/{id}/toggle.
//
//	@Summary		Toggle completion of a day (defaults to today)
//	@Tags			habits
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Habit ID"
//	@Param			body	body		DateRequest	false	"Day to toggle"
//	@Success		200		{object}	habit.Habit
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/{id}/toggle [post]
func (h *Handler) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	var req DateRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	day, err := habitservice.ParseDay(req.Date)
	if err != nil {
		writeError(w, "toggle habit", err)
		return
	}
	toggled, err := h.svc.Toggle(r.Context(), chi.URLParam(r, "id"), day)
	if err != nil {
		writeError(w, "toggle habit", err)
		return
	}
	writeJSON(w, http.StatusOK, toggled)
}

// ArchiveHabit handles POST /api/habits/{id}/archive.
//
//	@Summary		Archive a habit
//	@Tags			habits
//	@Produce		json
//	@Param			id	path		string	true	"Habit ID"
//	@Success		200	{object}	habit.Habit
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/{id}/archive [post]
func (h *Handler) ArchiveHabit(w http.ResponseWriter, r *http.Request) {
	h.flag(w, r, "archive habit", h.svc.Archive)
}

// RestoreHabit handles POST /api/habits/{id}/restore.
//
//	@Summary		Restore an archived habit
//	@Tags			habits
//	@Produce		json
//	@Param			id	path		string	true	"Habit ID"
//	@Success		200	{object}	habit.Habit
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/{id}/restore [post]
func (h *Handler) RestoreHabit(w http.ResponseWriter, r *http.Request) {
	h.flag(w, r, "restore habit", h.svc.Restore)
}

func setETag(w http.ResponseWriter, hb habit.Habit) {
	if rev := habitservice.Revision(hb); rev != "" {
		w.Header().Set("ETag", checksum.ETag(rev))
	}
}

func (h *Handler) flag(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, id string) (habit.Habit, error)) {
	updated, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ReorderHabits handles PUT /api/habits/order.
//
//	@Summary		Reorder habits by a full list of ids
//	@Tags			habits
//	@Accept			json
//	@Param			body	body	ReorderRequest	true	"Every habit id in the new order"
//	@Success		204		"Order saved"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/habits/order [put]
func (h *Handler) ReorderHabits(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if err := h.svc.Reorder(r.Context(), req.IDs); err != nil {
		writeError(w, "reorder habits", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Due handles GET /api/due.
//
//	@Summary		List active habits due today
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	HabitListResponse
//	@Security		BearerAuth
//	@Router			/due [get]
func (h *Handler) Due(w http.ResponseWriter, r *http.Request) {
	items := h.svc.DueToday(r.Context())
	writeJSON(w, http.StatusOK, HabitListResponse{Habits: items, Total: len(items)})
}

// Stats handles GET /api/stats.
//
//	@Summary		Aggregate score, perfect days and top habits
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	GlobalStats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GlobalStats(r.Context()))
}

// Widgets handles GET /api/widgets.
//
//	@Summary		Widget projection of active habits
//	@Tags			stats
//	@Produce		json
//	@Success		200	{array}	Widget
//	@Security		BearerAuth
//	@Router			/widgets [get]
func (h *Handler) Widgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Widgets(r.Context()))
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	habit.Settings
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings(r.Context()))
}

// PatchSettings handles PATCH /api/settings.
//
//	@Summary		Update some settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		habit.Settings	true	"Settings to change"
//	@Success		200		{object}	habit.Settings
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [patch]
func (h *Handler) PatchSettings(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	next, err := h.svc.PatchSettings(r.Context(), body)
	if err != nil {
		writeError(w, "patch settings", err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// Export handles GET /api/export.
//
//	@Summary		Download a backup of habits and settings
//	@Tags			backup
//	@Produce		json
//	@Success		200	{object}	ExportDocument
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="habitu-export.json"`)
	writeJSON(w, http.StatusOK, h.svc.Export(r.Context()))
}

// Import handles POST /api/import.
//
//	@Summary		Replace all habits with a JSON array of habit records
//	@Tags			backup
//	@Accept			json
//	@Produce		json
//	@Param			body	body		[]habit.Habit	true	"Habit records"
//	@Success		200		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Import(r.Context(), body)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: n})
}

// Reset handles POST /api/reset.
//
//	@Summary		Delete all habits and restore default settings
//	@Tags			backup
//	@Success		204	"Data reset"
//	@Security		BearerAuth
//	@Router			/reset [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.svc.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Sync handles POST /api/sync.
//
//	@Summary		Reconcile with the cloud snapshot now
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncResponse
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	res := h.opts.Sync.Sync(r.Context(), h.svc)
	writeJSON(w, http.StatusOK, SyncResponse{Outcome: res.Outcome, Added: res.Added, Applied: res.Applied})
}

// SnapshotCode handles GET /api/social/code.
//
//	@Summary		Shareable snapshot code of the local profile
//	@Tags			social
//	@Produce		json
//	@Success		200	{object}	CodeResponse
//	@Security		BearerAuth
//	@Router			/social/code [get]
func (h *Handler) SnapshotCode(w http.ResponseWriter, r *http.Request) {
	code, err := social.NewCode(h.opts.UserID, h.opts.UserName, h.svc.BestStreak(r.Context()), h.svc.Now())
	if err != nil {
		writeError(w, "snapshot code", err)
		return
	}
	writeJSON(w, http.StatusOK, CodeResponse{Code: code})
}

// ListRivals handles GET /api/social/rivals.
//
//	@Summary		List rivals
//	@Tags			social
//	@Produce		json
//	@Success		200	{array}	Rival
//	@Security		BearerAuth
//	@Router			/social/rivals [get]
func (h *Handler) ListRivals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Rivals.List())
}

// AddRival handles POST /api/social/rivals.
//
//	@Summary		Add or refresh a rival from a snapshot code
//	@Tags			social
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddRivalRequest	true	"Snapshot code"
//	@Success		200		{object}	Rival
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/social/rivals [post]
func (h *Handler) AddRival(w http.ResponseWriter, r *http.Request) {
	var req AddRivalRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	rival, err := h.opts.Rivals.Add(req.Code)
	if err != nil {
		writeError(w, "add rival", err)
		return
	}
	writeJSON(w, http.StatusOK, rival)
}

// RemoveRival handles DELETE /api/social/rivals/{id}.
//
//	@Summary		Remove a rival
//	@Tags			social
//	@Param			id	path	string	true	"Rival ID"
//	@Success		204	"Rival removed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/social/rivals/{id} [delete]
func (h *Handler) RemoveRival(w http.ResponseWriter, r *http.Request) {
	if err := h.opts.Rivals.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, "remove rival", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// League handles GET /api/social/league.
//
//	@Summary		League standing of the local profile
//	@Tags			social
//	@Produce		json
//	@Success		200	{object}	LeagueResponse
//	@Security		BearerAuth
//	@Router			/social/league [get]
func (h *Handler) League(w http.ResponseWriter, r *http.Request) {
	streak := h.svc.BestStreak(r.Context())
	resp := LeagueResponse{
		Streak: streak,
		League: social.LeagueFor(streak),
		Rivals: h.opts.Rivals.List(),
	}
	if next, ok := social.NextLeague(streak); ok {
		resp.Next = &next
	}
	writeJSON(w, http.StatusOK, resp)
}
