package habitservice

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/habit"
	"github.com/starford/habitu/internal/stats"
)

// HabitStatus is a habit with its derived state for today.
type HabitStatus struct {
	Habit     habit.Habit `json:"habit"`
	DueToday  bool        `json:"dueToday"`
	DoneToday bool        `json:"doneToday"`
	Streak    int         `json:"streak"`
	Strength  int         `json:"strength"`
}

// WeekDay is one cell of a widget's week strip.
type WeekDay struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Due   bool   `json:"due"`
	Done  bool   `json:"done"`
}

// Widget is the read-only projection consumed by home-screen widgets.
type Widget struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Icon           string         `json:"icon,omitempty"`
	Color          string         `json:"color,omitempty"`
	Streak         int            `json:"streak"`
	DueToday       bool           `json:"dueToday"`
	DoneToday      bool           `json:"doneToday"`
	CompletedDates map[string]any `json:"completedDates"`
	Week           []WeekDay      `json:"week"`
}

func (s *Service) status(h habit.Habit, today time.Time) HabitStatus {
	return HabitStatus{
		Habit:     h,
		DueToday:  stats.IsDue(h, today),
		DoneToday: h.DoneOn(today),
		Streak:    stats.Streak(h, today),
		Strength:  stats.Strength(h, today),
	}
}

// Status returns the derived state of one habit.
func (s *Service) Status(ctx context.Context, id string) (HabitStatus, error) {
	h, err := s.Get(ctx, id)
	if err != nil {
		return HabitStatus{}, err
	}
	return s.status(h, s.Today()), nil
}

// Statuses lists habits in collection order with their derived state.
func (s *Service) Statuses(ctx context.Context, includeArchived bool) []HabitStatus {
	today := s.Today()
	habits := s.List(ctx, includeArchived)
	out := make([]HabitStatus, len(habits))
	for i, h := range habits {
		out[i] = s.status(h, today)
	}
	return out
}

// DueToday lists active habits due today with their derived state.
func (s *Service) DueToday(ctx context.Context) []HabitStatus {
	today := s.Today()
	due := stats.DueOn(s.List(ctx, false), today)
	out := make([]HabitStatus, len(due))
	for i, h := range due {
		out[i] = s.status(h, today)
	}
	return out
}

// GlobalStats aggregates the active collection as of today.
func (s *Service) GlobalStats(ctx context.Context) stats.GlobalStats {
	return stats.Global(s.List(ctx, false), s.Today())
}

// BestStreak is the longest current streak among active habits.
func (s *Service) BestStreak(ctx context.Context) int {
	return stats.BestStreak(s.List(ctx, false), s.Today())
}

// Widgets projects every active habit for widget rendering. The week strip
// starts on the configured first day of the week.
func (s *Service) Widgets(ctx context.Context) []Widget {
	today := s.Today()
	weekStart := s.Settings(ctx).WeekStartDay()
	offset := (int(today.Weekday()) - int(weekStart) + 7) % 7
	first := today.AddDate(0, 0, -offset)

	habits := s.List(ctx, false)
	out := make([]Widget, len(habits))
	for i, h := range habits {
		week := make([]WeekDay, 7)
		for d := range week {
			day := first.AddDate(0, 0, d)
			week[d] = WeekDay{
				Date:  habit.DateKey(day),
				Label: habit.WeekdayName(day),
				Due:   stats.IsDue(h, day),
				Done:  h.DoneOn(day),
			}
		}
		out[i] = Widget{
			ID:             h.ID,
			Name:           h.Name,
			Icon:           h.Icon,
			Color:          h.Color,
			Streak:         stats.Streak(h, today),
			DueToday:       stats.IsDue(h, today),
			DoneToday:      h.DoneOn(today),
			CompletedDates: h.WireDates(),
			Week:           week,
		}
	}
	return out
}

// ParseDay parses an optional YYYY-MM-DD (or RFC 3339) query value; empty
// means today.
func ParseDay(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := habit.ParseDate(v)
	if err != nil {
		return time.Time{}, apperr.NewValidation("date", fmt.Sprintf("invalid date %q", v))
	}
	return t, nil
}
