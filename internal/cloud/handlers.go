package cloud

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/auth"
	"github.com/starford/habitu/internal/habit"
)

const maxSnapshotBytes = 10 << 20

// NewRouter mounts the snapshot API behind JWT authentication. A caller may
// only read or write its own user id.
func NewRouter(repo *Repo, secret string, logger *slog.Logger) chi.Router {
	h := &handler{repo: repo, logger: logger}

	r := chi.NewRouter()
	r.Use(auth.Middleware(secret))
	r.Get("/snapshots/{userID}", h.getSnapshot)
	r.Put("/snapshots/{userID}", h.putSnapshot)
	r.Put("/stats/{userID}", h.putStats)
	r.Get("/leaderboard", h.leaderboard)
	return r
}

type handler struct {
	repo   *Repo
	logger *slog.Logger
}

// ownUser returns the path user id when it matches the token's user.
func (h *handler) ownUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := chi.URLParam(r, "userID")
	if userID == "" || userID != auth.UserFrom(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
		return "", false
	}
	return userID, true
}

func (h *handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUser(w, r)
	if !ok {
		return
	}
	snap, err := h.repo.GetSnapshot(r.Context(), userID)
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("no snapshot"))
		return
	}
	if err != nil {
		h.logger.Error("get snapshot failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) putSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSnapshotBytes)
	var req struct {
		Habits json.RawMessage `json:"habits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return
	}
	habits, err := habit.DecodeCollection(req.Habits)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	data, err := habit.EncodeCollection(habits)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if err := h.repo.PutSnapshot(r.Context(), userID, data); err != nil {
		h.logger.Error("put snapshot failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"habits": len(habits)})
}

func (h *handler) putStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Name   string `json:"name"`
		Streak int    `json:"streak"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON"))
		return
	}
	if req.Streak < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("streak must be >= 0"))
		return
	}
	if err := h.repo.PutStats(r.Context(), userID, req.Name, req.Streak); err != nil {
		h.logger.Error("put stats failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.repo.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error("leaderboard failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
