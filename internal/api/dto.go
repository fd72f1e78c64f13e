package api

import (
	"github.com/starford/habitu/internal/habitservice"
	"github.com/starford/habitu/internal/social"
	"github.com/starford/habitu/internal/stats"
)

// CreateHabitRequest is the request body for creating a habit.
type CreateHabitRequest = habitservice.CreateInput

// UpdateHabitRequest is the partial request body for editing a habit.
type UpdateHabitRequest = habitservice.UpdateInput

// HabitStatus is a habit with its derived state (aliased from the domain layer).
type HabitStatus = habitservice.HabitStatus

// Widget is the widget projection (aliased from the domain layer).
type Widget = habitservice.Widget

// GlobalStats is the aggregate stats response (aliased from the engine).
type GlobalStats = stats.GlobalStats

// ExportDocument is the backup document (aliased from the domain layer).
type ExportDocument = habitservice.ExportDocument

// Rival is a rivals list entry (aliased from the social layer).
type Rival = social.Rival

// LogRequest is the request body for logging progress.
type LogRequest struct {
	Date   string  `json:"date" example:"2026-03-04"`
	Amount float64 `json:"amount" example:"2"`
}

// DateRequest is the optional request body carrying a calendar date.
type DateRequest struct {
	Date string `json:"date" example:"2026-03-04"`
}

// ReorderRequest is the request body for reordering habits.
type ReorderRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

// HabitListResponse wraps habit listings.
type HabitListResponse struct {
	Habits []HabitStatus `json:"habits" validate:"required"`
	Total  int           `json:"total" example:"4" validate:"required"`
}

// ImportResponse reports how many habits were imported.
type ImportResponse struct {
	Imported int `json:"imported" example:"12" validate:"required"`
}

// SyncResponse reports the outcome of a manual sync.
type SyncResponse struct {
	Outcome string `json:"outcome" example:"merged" validate:"required"`
	Added   int    `json:"added" example:"1"`
	Applied bool   `json:"applied"`
}

// CodeResponse carries the caller's snapshot code.
type CodeResponse struct {
	Code string `json:"code" example:"eyJpZCI6..." validate:"required"`
}

// AddRivalRequest is the request body for adding a rival.
type AddRivalRequest struct {
	Code string `json:"code" validate:"required"`
}

// LeagueResponse is the caller's league standing.
type LeagueResponse struct {
	Streak int            `json:"streak" example:"12"`
	League social.League  `json:"league"`
	Next   *social.League `json:"next,omitempty"`
	Rivals []Rival        `json:"rivals" validate:"required"`
}
