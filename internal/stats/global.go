package stats

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/starford/habitu/internal/habit"
)

const topHabitsLimit = 3

// RankedHabit is a habit annotated with its current strength and streak.
type RankedHabit struct {
	Habit    habit.Habit `json:"habit"`
	Strength int         `json:"strength"`
	Streak   int         `json:"streak"`
}

// GlobalStats aggregates the active collection.
type GlobalStats struct {
	Score       int           `json:"score"`
	PerfectDays []string      `json:"perfectDays"`
	TopHabits   []RankedHabit `json:"topHabits"`
}

// Global computes the overall score, the perfect days of the trailing 30 days
// (newest first) and the three strongest habits. Archived habits are ignored.
func Global(habits []habit.Habit, today time.Time) GlobalStats {
	active := habit.Active(habits)
	out := GlobalStats{PerfectDays: []string{}, TopHabits: []RankedHabit{}}
	if len(active) == 0 {
		return out
	}
	today = habit.Midnight(today)

	ranked := make([]RankedHabit, len(active))
	sum := 0
	for i, h := range active {
		s := Strength(h, today)
		ranked[i] = RankedHabit{Habit: h, Strength: s}
		sum += s
	}
	out.Score = int(math.Round(float64(sum) / float64(len(active))))

	for i := 0; i < strengthWindowDays; i++ {
		day := today.AddDate(0, 0, -i)
		if isPerfect(active, day) {
			out.PerfectDays = append(out.PerfectDays, habit.DateKey(day))
		}
	}

	slices.SortStableFunc(ranked, func(a, b RankedHabit) int {
		return cmp.Compare(b.Strength, a.Strength)
	})
	ranked = ranked[:min(topHabitsLimit, len(ranked))]
	for i := range ranked {
		ranked[i].Streak = Streak(ranked[i].Habit, today)
	}
	out.TopHabits = ranked
	return out
}

// isPerfect: at least one habit due on day and all of them done.
func isPerfect(active []habit.Habit, day time.Time) bool {
	due := 0
	for _, h := range active {
		if !IsDue(h, day) {
			continue
		}
		due++
		if !h.DoneOn(day) {
			return false
		}
	}
	return due > 0
}
