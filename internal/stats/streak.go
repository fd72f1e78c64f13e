package stats

import (
	"time"

	"github.com/starford/habitu/internal/habit"
)

// maxLookbackDays bounds the backward walk of Streak.
const maxLookbackDays = 730

// Streak counts consecutive completed days ending at today. Days that are not
// due bridge the gap; a due day left undone breaks the streak unless it is
// today, which is still pending.
func Streak(h habit.Habit, today time.Time) int {
	today = habit.Midnight(today)
	done := h.Completion()
	streak := 0
	for i := 0; i <= maxLookbackDays; i++ {
		day := today.AddDate(0, 0, -i)
		if done.Completed(h.Ledger.Amount(habit.DateKey(day))) {
			streak++
			continue
		}
		if i > 0 && IsDue(h, day) {
			break
		}
	}
	return streak
}

// BestStreak returns the longest current streak among active habits.
func BestStreak(habits []habit.Habit, today time.Time) int {
	best := 0
	for _, h := range habits {
		if h.Archived {
			continue
		}
		best = max(best, Streak(h, today))
	}
	return best
}
