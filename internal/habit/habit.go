// Package habit defines the habit entity, its frequency rules and its completion ledger.
package habit

import (
	"slices"
	"time"
)

// Type selects the completion rule of a habit.
type Type string

const (
	TypeBinary  Type = "binary"
	TypeNumeric Type = "numeric"
)

// IsValid reports whether t is a known habit type.
func (t Type) IsValid() bool {
	switch t {
	case TypeBinary, TypeNumeric:
		return true
	default:
		return false
	}
}

// Habit is a user-defined recurring action and its completion history.
type Habit struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Color       string
	Category    string
	Type        Type
	Goal        float64
	Unit        string
	Frequency   *Frequency
	Ledger      Ledger
	Archived    bool
	CreatedAt   time.Time
	Reminders   []string
}

// Completion returns the completion predicate for the habit's type.
func (h Habit) Completion() Completion {
	if h.Type == TypeNumeric {
		return numericCompletion{goal: h.Goal}
	}
	return binaryCompletion{}
}

// DoneOn reports whether the habit counts as completed on the given day.
func (h Habit) DoneOn(day time.Time) bool {
	return h.Completion().Completed(h.Ledger.Amount(DateKey(day)))
}

// Clone returns a deep copy of h.
func (h Habit) Clone() Habit {
	out := h
	out.Ledger = h.Ledger.Clone()
	out.Reminders = slices.Clone(h.Reminders)
	if h.Frequency != nil {
		f := h.Frequency.Clone()
		out.Frequency = &f
	}
	return out
}

// CloneAll deep-copies a collection, preserving order.
func CloneAll(habits []Habit) []Habit {
	out := make([]Habit, len(habits))
	for i, h := range habits {
		out[i] = h.Clone()
	}
	return out
}

// Active filters out archived habits, preserving order.
func Active(habits []Habit) []Habit {
	out := make([]Habit, 0, len(habits))
	for _, h := range habits {
		if !h.Archived {
			out = append(out, h)
		}
	}
	return out
}

// IndexByID returns the position of the habit with the given id, or -1.
func IndexByID(habits []Habit, id string) int {
	return slices.IndexFunc(habits, func(h Habit) bool { return h.ID == id })
}
