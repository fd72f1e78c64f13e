package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/habitu/internal/habit"
)

// 2026-03-04 is a Wednesday.
var wednesday = time.Date(2026, 3, 4, 18, 30, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse(habit.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func binary(id string, freq *habit.Frequency, done ...string) habit.Habit {
	l := habit.Ledger{}
	for _, d := range done {
		l[d] = 1
	}
	return habit.Habit{ID: id, Name: id, Type: habit.TypeBinary, Goal: 1, Frequency: freq, Ledger: l}
}

func TestIsDue_DailyAlwaysDue(t *testing.T) {
	h := binary("d", habit.Daily())
	start := day("2024-01-01")
	for i := 0; i < 1000; i++ {
		assert.True(t, IsDue(h, start.AddDate(0, 0, i)))
	}
	h.Frequency = nil
	assert.True(t, IsDue(h, wednesday), "missing frequency defaults to daily")
}

func TestIsDue_Weekly(t *testing.T) {
	h := binary("w", habit.Weekly("Mon", "Wed", "Fri"))
	assert.True(t, IsDue(h, day("2026-03-02")))
	assert.False(t, IsDue(h, day("2026-03-03")))
	assert.True(t, IsDue(h, wednesday))

	h.Frequency = habit.Weekly()
	assert.True(t, IsDue(h, day("2026-03-03")), "empty weekly set is due every day")
}

func TestIsDue_IntervalIsSymmetric(t *testing.T) {
	h := binary("i", habit.Interval(day("2026-03-10"), 3))
	assert.True(t, IsDue(h, day("2026-03-10")))
	assert.True(t, IsDue(h, day("2026-03-13")))
	assert.False(t, IsDue(h, day("2026-03-12")))
	assert.True(t, IsDue(h, day("2026-03-07")), "dates before start follow the same cadence")
	assert.False(t, IsDue(h, day("2026-03-08")))

	// time of day is ignored
	assert.True(t, IsDue(h, time.Date(2026, 3, 13, 23, 59, 0, 0, time.UTC)))
}

func TestIsDue_IntervalWithoutStart(t *testing.T) {
	h := binary("i", &habit.Frequency{Kind: habit.FrequencyInterval, Every: 4})
	assert.True(t, IsDue(h, wednesday))
}

func TestScenarioA_CreatedAndDoneToday(t *testing.T) {
	daily := binary("a", habit.Daily(), "2026-03-04")
	assert.Equal(t, 1, Streak(daily, wednesday))

	onlyToday := binary("a", habit.Interval(wednesday, 30), "2026-03-04")
	assert.Equal(t, 100, Strength(onlyToday, wednesday))
}

func TestScenarioB_NonDueDaysBridge(t *testing.T) {
	h := binary("b", habit.Weekly("Mon", "Wed", "Fri"), "2026-03-02", "2026-03-04")
	assert.Equal(t, 2, Streak(h, wednesday))
}

func TestScenarioC_NumericGoal(t *testing.T) {
	h := habit.Habit{ID: "c", Type: habit.TypeNumeric, Goal: 3, Frequency: habit.Daily(), Ledger: habit.Ledger{}}
	h.Ledger.Add("2026-03-04", 1)
	assert.Equal(t, 0, Streak(h, wednesday))
	assert.Equal(t, 0, Strength(h, wednesday))

	h.Ledger.Add("2026-03-04", 2)
	assert.Equal(t, 1, Streak(h, wednesday))
	assert.Positive(t, Strength(h, wednesday))
}

func TestScenarioE_NoDueDayIsNotPerfect(t *testing.T) {
	h := binary("e", habit.Weekly("Mon"), "2026-03-02")
	got := Global([]habit.Habit{h}, wednesday)
	assert.Equal(t, []string{"2026-03-02"}, got.PerfectDays)
}

func TestStreak_TodayPendingKeepsYesterday(t *testing.T) {
	h := binary("s", habit.Daily(), "2026-03-01", "2026-03-02", "2026-03-03")
	assert.Equal(t, 3, Streak(h, wednesday))
	assert.Equal(t, 3, Streak(h, wednesday), "streak is idempotent")
}

func TestStreak_MissedDueDayBreaks(t *testing.T) {
	h := binary("s", habit.Daily(), "2026-03-01", "2026-03-03", "2026-03-04")
	assert.Equal(t, 2, Streak(h, wednesday))
}

func TestStreak_BoundedLookback(t *testing.T) {
	h := binary("s", habit.Daily())
	start := habit.Midnight(wednesday)
	for i := 0; i < 1000; i++ {
		h.Ledger[habit.DateKey(start.AddDate(0, 0, -i))] = 1
	}
	assert.Equal(t, maxLookbackDays+1, Streak(h, wednesday))
}

func TestStrength_RecentDaysWeighMore(t *testing.T) {
	recent := binary("r", habit.Daily(), "2026-03-04")
	old := binary("o", habit.Daily(), "2026-02-22")
	// 1.5 / 33.5 and 1 / 33.5
	assert.Equal(t, 4, Strength(recent, wednesday))
	assert.Equal(t, 3, Strength(old, wednesday))
}

func TestStrength_NothingDue(t *testing.T) {
	h := binary("n", habit.Interval(day("2026-06-01"), 200))
	assert.Equal(t, 0, Strength(h, wednesday))
}

func TestGlobal_Empty(t *testing.T) {
	got := Global(nil, wednesday)
	assert.Equal(t, 0, got.Score)
	assert.Empty(t, got.PerfectDays)
	assert.Empty(t, got.TopHabits)

	archived := binary("x", habit.Daily(), "2026-03-04")
	archived.Archived = true
	assert.Equal(t, 0, Global([]habit.Habit{archived}, wednesday).Score)
}

func TestGlobal_TopHabitsStableAndAnnotated(t *testing.T) {
	var all []string
	for i := 0; i < 30; i++ {
		all = append(all, habit.DateKey(habit.Midnight(wednesday).AddDate(0, 0, -i)))
	}
	habits := []habit.Habit{
		binary("weak", habit.Daily()),
		binary("tie1", habit.Daily(), "2026-03-04"),
		binary("full", habit.Daily(), all...),
		binary("tie2", habit.Daily(), "2026-03-04"),
	}
	got := Global(habits, wednesday)
	require.Len(t, got.TopHabits, 3)
	assert.Equal(t, "full", got.TopHabits[0].Habit.ID)
	assert.Equal(t, "tie1", got.TopHabits[1].Habit.ID)
	assert.Equal(t, "tie2", got.TopHabits[2].Habit.ID)
	assert.Equal(t, 100, got.TopHabits[0].Strength)
	assert.Equal(t, 30, got.TopHabits[0].Streak)
	assert.Equal(t, 1, got.TopHabits[1].Streak)
	// (0 + 4 + 100 + 4) / 4
	assert.Equal(t, 27, got.Score)
	assert.Empty(t, got.PerfectDays, "weak habit is never done")
}

func TestGlobal_PerfectDaysNewestFirst(t *testing.T) {
	habits := []habit.Habit{
		binary("a", habit.Daily(), "2026-03-04", "2026-03-02", "2026-03-01"),
		binary("b", habit.Weekly("Sun", "Wed"), "2026-03-04", "2026-03-01"),
	}
	got := Global(habits, wednesday)
	assert.Equal(t, []string{"2026-03-04", "2026-03-02", "2026-03-01"}, got.PerfectDays)
}

func TestDueOnAndBestStreak(t *testing.T) {
	archived := binary("z", habit.Daily(), "2026-03-04", "2026-03-03", "2026-03-02", "2026-03-01")
	archived.Archived = true
	habits := []habit.Habit{
		binary("mwf", habit.Weekly("Mon", "Wed", "Fri"), "2026-03-02", "2026-03-04"),
		binary("tue", habit.Weekly("Tue")),
		archived,
	}
	due := DueOn(habits, wednesday)
	require.Len(t, due, 1)
	assert.Equal(t, "mwf", due[0].ID)
	assert.Equal(t, 2, BestStreak(habits, wednesday))
}
