package habitservice

import (
	"context"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/habit"
	"github.com/starford/habitu/internal/metrics"
)

// ExportVersion is the version tag written into export documents.
const ExportVersion = "1.0"

// exportDateLayout matches the millisecond UTC timestamps clients produce.
const exportDateLayout = "2006-01-02T15:04:05.000Z"

// ExportDocument is the full backup of habits and settings.
type ExportDocument struct {
	Habits     []habit.Habit  `json:"habits"`
	Settings   habit.Settings `json:"settings"`
	ExportDate string         `json:"exportDate"`
	Version    string         `json:"version"`
}

// Export returns the backup document.
func (s *Service) Export(_ context.Context) ExportDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ExportDocument{
		Habits:     habit.CloneAll(s.habits),
		Settings:   s.settings,
		ExportDate: s.now().UTC().Format(exportDateLayout),
		Version:    ExportVersion,
	}
}

// Import replaces the whole collection with a JSON array of habit records.
// Anything else is rejected with a validation error and nothing changes.
func (s *Service) Import(_ context.Context, data []byte) (int, error) {
	habits, err := habit.DecodeCollection(data)
	if err != nil {
		return 0, err
	}
	habits = ensureIDs(habits)

	s.mu.Lock()
	s.habits = habits
	s.version++
	s.persistHabits()
	s.mu.Unlock()

	metrics.IncrementMutation("import")
	s.notify(Change{Kind: KindImported})
	return len(habits), nil
}

// Settings returns the current settings.
func (s *Service) Settings(_ context.Context) habit.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// PatchSettings applies a partial JSON settings document.
func (s *Service) PatchSettings(_ context.Context, patch []byte) (habit.Settings, error) {
	s.mu.Lock()
	next, err := s.settings.Patch(patch)
	if err != nil {
		s.mu.Unlock()
		return habit.Settings{}, apperr.NewValidation("settings", err.Error())
	}
	s.settings = next
	s.persistSettings()
	s.mu.Unlock()

	metrics.IncrementMutation("settings")
	s.notify(Change{Kind: KindSettings})
	return next, nil
}

// Reset deletes every habit and restores default settings.
func (s *Service) Reset(_ context.Context) {
	s.mu.Lock()
	s.habits = []habit.Habit{}
	s.settings = habit.DefaultSettings()
	s.version++
	s.persistHabits()
	s.persistSettings()
	s.mu.Unlock()

	metrics.IncrementMutation("reset")
	s.notify(Change{Kind: KindReset})
}
