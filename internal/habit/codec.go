package habit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/habitu/internal/apperr"
)

type wireHabit struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Icon           string         `json:"icon,omitempty"`
	Color          string         `json:"color,omitempty"`
	Category       string         `json:"category,omitempty"`
	Type           Type           `json:"type"`
	Goal           float64        `json:"goal"`
	Unit           string         `json:"unit,omitempty"`
	Frequency      *Frequency     `json:"frequency,omitempty"`
	CompletedDates map[string]any `json:"completedDates"`
	Archived       bool           `json:"archived"`
	CreatedAt      time.Time      `json:"createdAt"`
	Reminders      []string       `json:"reminders,omitempty"`
}

// WireDates projects the ledger into its encoded form: binary entries as
// true, numeric entries as their amount.
func (h Habit) WireDates() map[string]any {
	dates := make(map[string]any, len(h.Ledger))
	for k, v := range h.Ledger {
		if h.Type == TypeNumeric {
			dates[k] = v
		} else {
			dates[k] = true
		}
	}
	return dates
}

// MarshalJSON writes the canonical record shape.
func (h Habit) MarshalJSON() ([]byte, error) {
	dates := h.WireDates()
	typ := h.Type
	if !typ.IsValid() {
		typ = TypeBinary
	}
	return json.Marshal(wireHabit{
		ID:             h.ID,
		Name:           h.Name,
		Description:    h.Description,
		Icon:           h.Icon,
		Color:          h.Color,
		Category:       h.Category,
		Type:           typ,
		Goal:           h.Goal,
		Unit:           h.Unit,
		Frequency:      h.Frequency,
		CompletedDates: dates,
		Archived:       h.Archived,
		CreatedAt:      h.CreatedAt,
		Reminders:      h.Reminders,
	})
}

// UnmarshalJSON decodes a habit record tolerantly; see normalize.go for the
// defaults applied to missing or malformed fields.
func (h *Habit) UnmarshalJSON(data []byte) error {
	var raw rawHabit
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("habit: decode record: %w", err)
	}
	*h = raw.normalize()
	return nil
}

// DecodeCollection parses a JSON array of habit records. Anything that is not
// an array is rejected with a validation error.
func DecodeCollection(data []byte) ([]Habit, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperr.NewValidation("habits", "payload must be a JSON array")
	}
	var out []Habit
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, apperr.NewValidation("habits", err.Error())
	}
	if out == nil {
		out = []Habit{}
	}
	return out, nil
}

// EncodeCollection serializes a collection as a JSON array (never null).
func EncodeCollection(habits []Habit) ([]byte, error) {
	if habits == nil {
		habits = []Habit{}
	}
	return json.Marshal(habits)
}
