package habit

import (
	"fmt"
	"time"
)

// DateLayout is the canonical ledger key format.
const DateLayout = "2006-01-02"

// DateKey formats the calendar date of t as a ledger key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Midnight strips the time of day, keeping the calendar date t has in its
// own location. The result is expressed in UTC so day arithmetic is exact.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from b to a (a - b).
func DaysBetween(a, b time.Time) int {
	return int(Midnight(a).Sub(Midnight(b)).Hours() / 24)
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Midnight(t).AddDate(0, 0, n)
}

// ParseDate accepts a canonical date or an RFC 3339 timestamp and returns
// its calendar date at midnight.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("habit: invalid date %q", s)
	}
	return Midnight(t), nil
}

// IsDateKey reports whether s is a well-formed canonical date.
func IsDateKey(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// WeekdayName returns the three-letter English weekday of t ("Mon".."Sun").
func WeekdayName(t time.Time) string {
	return t.Weekday().String()[:3]
}
