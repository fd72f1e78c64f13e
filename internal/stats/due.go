// Package stats derives due lists, streaks and consistency scores from a habit
// collection. Every function is pure and recomputes from the ledger on each call.
package stats

import (
	"slices"
	"time"

	"github.com/starford/habitu/internal/habit"
)

// IsDue reports whether h is due on the calendar date of day.
func IsDue(h habit.Habit, day time.Time) bool {
	f := h.Frequency
	if f == nil {
		return true
	}
	switch f.Kind {
	case habit.FrequencyWeekly:
		if len(f.Days) == 0 {
			return true
		}
		return slices.Contains(f.Days, habit.WeekdayName(day))
	case habit.FrequencyInterval:
		start, err := habit.ParseDate(f.StartDate)
		if err != nil {
			return true
		}
		every := max(f.Every, 1)
		diff := habit.DaysBetween(day, start)
		if diff < 0 {
			// Dates before the start are due on the same cadence.
			diff = -diff
		}
		return diff%every == 0
	default:
		return true
	}
}

// DueOn returns the active habits due on day, preserving order.
func DueOn(habits []habit.Habit, day time.Time) []habit.Habit {
	out := make([]habit.Habit, 0, len(habits))
	for _, h := range habits {
		if !h.Archived && IsDue(h, day) {
			out = append(out, h)
		}
	}
	return out
}
