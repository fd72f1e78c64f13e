package habitservice

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/checksum"
	"github.com/starford/habitu/internal/habit"
	"github.com/starford/habitu/internal/metrics"
)

// Create adds a new habit with a fresh id and an empty ledger.
func (s *Service) Create(_ context.Context, in CreateInput) (habit.Habit, error) {
	if err := in.Validate(); err != nil {
		return habit.Habit{}, asValidation(err)
	}
	h := habit.Habit{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		Category:    in.Category,
		Type:        in.Type,
		Goal:        in.Goal,
		Unit:        in.Unit,
		Frequency:   in.Frequency,
		Ledger:      habit.Ledger{},
		CreatedAt:   s.now().UTC(),
		Reminders:   slices.Clone(in.Reminders),
	}
	if !h.Type.IsValid() {
		h.Type = habit.TypeBinary
	}
	if h.Type == habit.TypeBinary || h.Goal <= 0 {
		h.Goal = 1
	}
	h.Frequency = s.normalizeFrequency(h.Frequency)

	s.mu.Lock()
	s.habits = append(s.habits, h)
	s.version++
	s.persistHabits()
	s.mu.Unlock()

	metrics.IncrementMutation("create")
	s.notify(Change{Kind: KindCreated, HabitID: h.ID})
	return h.Clone(), nil
}

// normalizeFrequency defaults a missing rule to daily and anchors an
// interval without a start date at today.
func (s *Service) normalizeFrequency(f *habit.Frequency) *habit.Frequency {
	if f == nil {
		return habit.Daily()
	}
	out := f.Clone()
	if out.Kind == habit.FrequencyInterval {
		out.Every = max(out.Every, 1)
		if start, err := habit.ParseDate(out.StartDate); err == nil {
			out.StartDate = habit.DateKey(start)
		} else {
			out.StartDate = habit.DateKey(s.Today())
		}
	}
	if out.Kind != habit.FrequencyWeekly {
		out.Days = nil
	}
	return &out
}

// Get returns a copy of the habit with id.
func (s *Service) Get(_ context.Context, id string) (habit.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := habit.IndexByID(s.habits, id)
	if i < 0 {
		return habit.Habit{}, fmt.Errorf("habit %s: %w", id, apperr.ErrNotFound)
	}
	return s.habits[i].Clone(), nil
}

// List returns the collection in user order; archived habits only when asked.
func (s *Service) List(_ context.Context, includeArchived bool) []habit.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if includeArchived {
		return habit.CloneAll(s.habits)
	}
	return habit.CloneAll(habit.Active(s.habits))
}

// Update applies a partial edit. Changing a numeric habit to binary
// collapses its ledger to presence.
func (s *Service) Update(_ context.Context, id string, in UpdateInput) (habit.Habit, error) {
	if err := in.Validate(); err != nil {
		return habit.Habit{}, asValidation(err)
	}
	return s.mutate(id, "update", func(h *habit.Habit) (string, error) {
		if in.IfMatch != "" && in.IfMatch != Revision(*h) {
			return "", fmt.Errorf("habit %s changed: %w", id, apperr.ErrConflict)
		}
		setIf(&h.Name, in.Name)
		setIf(&h.Description, in.Description)
		setIf(&h.Icon, in.Icon)
		setIf(&h.Color, in.Color)
		setIf(&h.Category, in.Category)
		setIf(&h.Unit, in.Unit)
		if in.Type != nil && *in.Type != h.Type {
			h.Type = *in.Type
			if h.Type == habit.TypeBinary {
				h.Goal = 1
				for k := range h.Ledger {
					h.Ledger[k] = 1
				}
			}
		}
		if in.Goal != nil && h.Type == habit.TypeNumeric {
			h.Goal = *in.Goal
		}
		if in.Frequency != nil {
			h.Frequency = s.normalizeFrequency(in.Frequency)
		}
		if in.Reminders != nil {
			h.Reminders = slices.Clone(in.Reminders)
		}
		return KindUpdated, nil
	})
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Log records progress on day. Binary habits flip the day regardless of
// amount; numeric habits accumulate amount and drop the day at 0 or below.
func (s *Service) Log(_ context.Context, id string, day time.Time, amount float64) (habit.Habit, error) {
	key := habit.DateKey(s.dayOrToday(day))
	return s.mutate(id, "log", func(h *habit.Habit) (string, error) {
		if h.Ledger == nil {
			h.Ledger = habit.Ledger{}
		}
		if h.Type == habit.TypeNumeric {
			h.Ledger.Add(key, amount)
		} else {
			h.Ledger.Flip(key)
		}
		return KindLogged, nil
	})
}

// Toggle flips a day: binary habits flip presence; numeric habits clear any
// logged amount, or log the full goal when nothing is logged.
func (s *Service) Toggle(_ context.Context, id string, day time.Time) (habit.Habit, error) {
	key := habit.DateKey(s.dayOrToday(day))
	return s.mutate(id, "toggle", func(h *habit.Habit) (string, error) {
		if h.Ledger == nil {
			h.Ledger = habit.Ledger{}
		}
		switch {
		case h.Type != habit.TypeNumeric:
			h.Ledger.Flip(key)
		case h.Ledger.Amount(key) > 0:
			delete(h.Ledger, key)
		default:
			h.Ledger.Add(key, h.Goal)
		}
		return KindLogged, nil
	})
}

func (s *Service) dayOrToday(day time.Time) time.Time {
	if day.IsZero() {
		return s.Today()
	}
	return habit.Midnight(day)
}

// Archive hides the habit from due lists and statistics.
func (s *Service) Archive(_ context.Context, id string) (habit.Habit, error) {
	return s.mutate(id, "archive", func(h *habit.Habit) (string, error) {
		h.Archived = true
		return KindArchived, nil
	})
}

// Restore clears the archived flag.
func (s *Service) Restore(_ context.Context, id string) (habit.Habit, error) {
	return s.mutate(id, "restore", func(h *habit.Habit) (string, error) {
		h.Archived = false
		return KindRestored, nil
	})
}

// Delete removes the habit and its history.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	i := habit.IndexByID(s.habits, id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("habit %s: %w", id, apperr.ErrNotFound)
	}
	s.habits = slices.Delete(s.habits, i, i+1)
	s.version++
	s.persistHabits()
	s.mu.Unlock()

	metrics.IncrementMutation("delete")
	s.notify(Change{Kind: KindDeleted, HabitID: id})
	return nil
}

// Reorder sets the collection order. ids must be a permutation of every
// habit id, archived ones included.
func (s *Service) Reorder(_ context.Context, ids []string) error {
	s.mu.Lock()
	if len(ids) != len(s.habits) {
		s.mu.Unlock()
		return apperr.NewValidation("ids", "must list every habit exactly once")
	}
	out := make([]habit.Habit, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		i := habit.IndexByID(s.habits, id)
		if i < 0 || seen[id] {
			s.mu.Unlock()
			return apperr.NewValidation("ids", "must list every habit exactly once")
		}
		seen[id] = true
		out = append(out, s.habits[i])
	}
	s.habits = out
	s.version++
	s.persistHabits()
	s.mu.Unlock()

	metrics.IncrementMutation("reorder")
	s.notify(Change{Kind: KindReordered})
	return nil
}

// ensureIDs assigns an id to records ingested without one.
func ensureIDs(habits []habit.Habit) []habit.Habit {
	for i := range habits {
		if habits[i].ID == "" {
			habits[i].ID = uuid.NewString()
		}
	}
	return habits
}

// Revision is the checksum of h's encoded record, used as its ETag.
func Revision(h habit.Habit) string {
	data, err := encodeJSON(h)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}

func encodeJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
