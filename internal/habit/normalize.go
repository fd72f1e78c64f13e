package habit

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// rawHabit is the permissive shape accepted at ingestion time: stored blobs,
// imports and remote snapshots all pass through it exactly once.
type rawHabit struct {
	ID             json.RawMessage `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Icon           string          `json:"icon"`
	Color          string          `json:"color"`
	Category       string          `json:"category"`
	Type           string          `json:"type"`
	Goal           json.RawMessage `json:"goal"`
	Unit           string          `json:"unit"`
	Frequency      *rawFrequency   `json:"frequency"`
	CompletedDates map[string]any  `json:"completedDates"`
	Logs           map[string]any  `json:"logs"` // legacy ledger field
	Archived       bool            `json:"archived"`
	CreatedAt      string          `json:"createdAt"`
	Reminders      []any           `json:"reminders"`
}

type rawFrequency struct {
	Type      string          `json:"type"`
	Days      []any           `json:"days"`
	Interval  json.RawMessage `json:"interval"`
	StartDate string          `json:"startDate"`
}

func (r rawHabit) normalize() Habit {
	h := Habit{
		ID:          rawString(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Icon:        r.Icon,
		Color:       r.Color,
		Category:    r.Category,
		Type:        TypeBinary,
		Goal:        1,
		Unit:        r.Unit,
		Archived:    r.Archived,
	}
	if Type(strings.ToLower(r.Type)) == TypeNumeric {
		h.Type = TypeNumeric
	}
	if g, ok := rawNumber(r.Goal); ok && g > 0 {
		h.Goal = g
	}
	h.Frequency = r.Frequency.normalize()

	dates := r.CompletedDates
	if dates == nil {
		dates = r.Logs
	}
	h.Ledger = normalizeLedger(dates, h.Type)

	if t, err := time.Parse(time.RFC3339Nano, r.CreatedAt); err == nil {
		h.CreatedAt = t
	}
	for _, v := range r.Reminders {
		if s, ok := v.(string); ok {
			h.Reminders = append(h.Reminders, s)
		}
	}
	return h
}

func (f *rawFrequency) normalize() *Frequency {
	if f == nil {
		return Daily()
	}
	switch FrequencyKind(strings.ToLower(f.Type)) {
	case FrequencyWeekly:
		out := &Frequency{Kind: FrequencyWeekly}
		for _, d := range f.Days {
			s, ok := d.(string)
			if !ok {
				continue
			}
			if name := canonicalWeekday(s); name != "" {
				out.Days = append(out.Days, name)
			}
		}
		return out
	case FrequencyInterval:
		out := &Frequency{Kind: FrequencyInterval, Every: 1}
		if n, ok := rawNumber(f.Interval); ok && int(n) >= 1 {
			out.Every = int(n)
		}
		if start, err := ParseDate(f.StartDate); err == nil {
			out.StartDate = DateKey(start)
		}
		return out
	default:
		return Daily()
	}
}

// normalizeLedger canonicalizes keys and values. Malformed keys are dropped;
// values that do not represent a positive amount are treated as absent.
func normalizeLedger(raw map[string]any, typ Type) Ledger {
	out := Ledger{}
	for k, v := range raw {
		day, err := ParseDate(k)
		if err != nil {
			continue
		}
		key := DateKey(day)
		amount := ledgerAmount(v)
		if amount <= 0 {
			continue
		}
		if typ == TypeNumeric {
			out.Add(key, amount)
		} else {
			out[key] = 1
		}
	}
	return out
}

func ledgerAmount(v any) float64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
	case float64:
		return x
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return n
		}
		if x != "" {
			return 1
		}
	}
	return 0
}

func canonicalWeekday(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return ""
	}
	name := strings.ToUpper(s[:1]) + strings.ToLower(s[1:3])
	if !IsValidWeekday(name) {
		return ""
	}
	return name
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func rawNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
