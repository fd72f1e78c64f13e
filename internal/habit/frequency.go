package habit

import (
	"errors"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FrequencyKind names a recurrence rule.
type FrequencyKind string

const (
	FrequencyDaily    FrequencyKind = "daily"
	FrequencyWeekly   FrequencyKind = "weekly"
	FrequencyInterval FrequencyKind = "interval"
)

// Weekdays is the fixed weekday encoding used by weekly frequencies.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Frequency is the recurrence rule of a habit.
//
//   - daily: due every day.
//   - weekly: due on Days; an empty Days set means every day.
//   - interval: due every Every days counted from StartDate.
type Frequency struct {
	Kind      FrequencyKind `json:"type"`
	Days      []string      `json:"days,omitempty"`
	Every     int           `json:"interval,omitempty"`
	StartDate string        `json:"startDate,omitempty"`
}

// Daily returns a daily frequency.
func Daily() *Frequency {
	return &Frequency{Kind: FrequencyDaily}
}

// Weekly returns a frequency due on the given weekday names.
func Weekly(days ...string) *Frequency {
	return &Frequency{Kind: FrequencyWeekly, Days: days}
}

// Interval returns a frequency due every n days from start.
func Interval(start time.Time, n int) *Frequency {
	return &Frequency{Kind: FrequencyInterval, Every: n, StartDate: DateKey(start)}
}

// Clone returns a deep copy of f.
func (f Frequency) Clone() Frequency {
	f.Days = slices.Clone(f.Days)
	return f
}

// IsValidWeekday reports whether name is part of the weekday encoding.
func IsValidWeekday(name string) bool {
	return slices.Contains(Weekdays, name)
}

// Validate checks the rule shape; it is used on create/update input, not on
// ingested records, which are normalized instead.
func (f Frequency) Validate() error {
	days := make([]any, len(Weekdays))
	for i, d := range Weekdays {
		days[i] = d
	}
	return validation.ValidateStruct(&f,
		validation.Field(&f.Kind, validation.Required, validation.In(FrequencyDaily, FrequencyWeekly, FrequencyInterval)),
		validation.Field(&f.Days, validation.Each(validation.In(days...))),
		validation.Field(&f.Every, validation.When(f.Kind == FrequencyInterval, validation.Required, validation.Min(1))),
		validation.Field(&f.StartDate, validation.By(func(v any) error {
			s, _ := v.(string)
			if s == "" {
				return nil
			}
			if _, err := ParseDate(s); err != nil {
				return errors.New("must be a date")
			}
			return nil
		})),
	)
}
