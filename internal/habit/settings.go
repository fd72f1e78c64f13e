package habit

import (
	"encoding/json"
	"strings"
	"time"
)

// Settings are the global display preferences. Only WeekStart feeds any
// computation (weekly widget alignment); the rest is carried for clients.
type Settings struct {
	WeekStart           string `json:"weekStart"`
	HighlightCurrentDay bool   `json:"highlightCurrentDay"`
	ShowStreakCount     bool   `json:"showStreakCount"`
	ShowStreakGoal      bool   `json:"showStreakGoal"`
	ShowMonthLabels     bool   `json:"showMonthLabels"`
	ShowDayLabels       bool   `json:"showDayLabels"`
	Theme               string `json:"theme"`
	AccentColor         string `json:"accentColor"`
	CardStyle           string `json:"cardStyle"`
	ViewMode            string `json:"viewMode"`
}

// DefaultSettings returns the settings used when nothing is saved.
func DefaultSettings() Settings {
	return Settings{
		WeekStart:           "Monday",
		HighlightCurrentDay: true,
		ShowStreakCount:     true,
		ShowStreakGoal:      true,
		ShowMonthLabels:     true,
		ShowDayLabels:       true,
		Theme:               "dark",
		AccentColor:         "#2dd4bf",
		CardStyle:           "heatmap",
		ViewMode:            "list",
	}
}

// DecodeSettings overlays saved values on top of the defaults.
func DecodeSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), err
	}
	return s, nil
}

// Patch applies a partial JSON document to s.
func (s Settings) Patch(data []byte) (Settings, error) {
	out := s
	if err := json.Unmarshal(data, &out); err != nil {
		return s, err
	}
	return out, nil
}

// WeekStartDay parses WeekStart, falling back to Monday.
func (s Settings) WeekStartDay() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s.WeekStart, name) || strings.EqualFold(s.WeekStart, name[:3]) {
			return d
		}
	}
	return time.Monday
}
