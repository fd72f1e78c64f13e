package stats

import (
	"math"
	"time"

	"github.com/starford/habitu/internal/habit"
)

const (
	strengthWindowDays = 30
	recentDays         = 7
	recentWeight       = 1.5
)

// Strength is the weighted completion ratio of due days over the trailing
// 30 days, today included, scaled to 0..100. The last 7 days weigh 1.5.
func Strength(h habit.Habit, today time.Time) int {
	today = habit.Midnight(today)
	done := h.Completion()
	var total, completed float64
	for i := 0; i < strengthWindowDays; i++ {
		day := today.AddDate(0, 0, -i)
		if !IsDue(h, day) {
			continue
		}
		w := 1.0
		if i < recentDays {
			w = recentWeight
		}
		total += w
		if done.Completed(h.Ledger.Amount(habit.DateKey(day))) {
			completed += w
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * completed / total))
}
