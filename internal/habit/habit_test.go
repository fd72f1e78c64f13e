package habit

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/starford/habitu/internal/apperr"
)

func TestNumericCompletionUsesGoal(t *testing.T) {
	day := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	h := Habit{Type: TypeNumeric, Goal: 3, Ledger: Ledger{"2026-03-04": 2}}
	if h.DoneOn(day) {
		t.Fatal("2 of 3 should not complete the day")
	}
	h.Ledger.Add("2026-03-04", 1)
	if !h.DoneOn(day) {
		t.Fatal("3 of 3 should complete the day")
	}
}

func TestBinaryCompletionPresence(t *testing.T) {
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	h := Habit{Type: TypeBinary, Ledger: Ledger{}}
	if h.DoneOn(day) {
		t.Fatal("empty ledger should not be done")
	}
	h.Ledger.Flip("2026-03-04")
	if !h.DoneOn(day) {
		t.Fatal("flipped day should be done")
	}
	h.Ledger.Flip("2026-03-04")
	if h.Ledger.Has("2026-03-04") {
		t.Fatal("second flip should clear the day")
	}
}

func TestLedgerAddDeletesNonPositive(t *testing.T) {
	l := Ledger{}
	l.Add("2026-01-01", 2)
	l.Add("2026-01-01", -2)
	if l.Has("2026-01-01") {
		t.Errorf("entry should be deleted at 0, got %v", l)
	}
	l.Add("2026-01-02", -1)
	if len(l) != 0 {
		t.Errorf("negative add should not create an entry, got %v", l)
	}
}

func TestUnmarshal_LegacyLogsField(t *testing.T) {
	var h Habit
	data := `{"id":"a","name":"Read","logs":{"2026-01-01":true,"2026-01-02":true}}`
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(h.Ledger) != 2 {
		t.Errorf("ledger = %v, want 2 entries from legacy logs", h.Ledger)
	}
}

func TestUnmarshal_Defaults(t *testing.T) {
	var h Habit
	if err := json.Unmarshal([]byte(`{"id":"a","name":"Walk"}`), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if h.Type != TypeBinary {
		t.Errorf("type = %q, want binary", h.Type)
	}
	if h.Goal != 1 {
		t.Errorf("goal = %v, want 1", h.Goal)
	}
	if h.Frequency == nil || h.Frequency.Kind != FrequencyDaily {
		t.Errorf("frequency = %+v, want daily", h.Frequency)
	}
	if h.Ledger == nil {
		t.Error("ledger should be non-nil")
	}
}

func TestUnmarshal_MalformedLedgerEntries(t *testing.T) {
	var h Habit
	data := `{"id":"n","type":"numeric","goal":"2","completedDates":{
		"2026-01-01": 3,
		"2026-01-02": "lots",
		"2026-01-03": -1,
		"not-a-date": 5,
		"2026-01-04T10:00:00Z": 1
	}}`
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if h.Goal != 2 {
		t.Errorf("goal = %v, want 2", h.Goal)
	}
	if h.Ledger.Amount("2026-01-01") != 3 {
		t.Errorf("2026-01-01 = %v, want 3", h.Ledger.Amount("2026-01-01"))
	}
	if h.Ledger.Amount("2026-01-02") != 1 {
		t.Errorf("non-numeric string should count as a truthy 1, got %v", h.Ledger.Amount("2026-01-02"))
	}
	if h.Ledger.Has("2026-01-03") || h.Ledger.Has("not-a-date") {
		t.Errorf("invalid entries should be dropped: %v", h.Ledger)
	}
	if !h.Ledger.Has("2026-01-04") {
		t.Errorf("timestamp keys should be canonicalized: %v", h.Ledger)
	}
}

func TestUnmarshal_Frequency(t *testing.T) {
	var h Habit
	data := `{"id":"w","frequency":{"type":"weekly","days":["mon","Wed","Funday",3]}}`
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := strings.Join(h.Frequency.Days, ","); got != "Mon,Wed" {
		t.Errorf("days = %q, want Mon,Wed", got)
	}

	data = `{"id":"i","frequency":{"type":"interval","interval":0,"startDate":"2026-02-01T09:30:00.000Z"}}`
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if h.Frequency.Every != 1 {
		t.Errorf("every = %d, want 1", h.Frequency.Every)
	}
	if h.Frequency.StartDate != "2026-02-01" {
		t.Errorf("startDate = %q", h.Frequency.StartDate)
	}
}

func TestMarshal_BinaryLedgerAsTrue(t *testing.T) {
	h := Habit{ID: "a", Type: TypeBinary, Frequency: Daily(), Ledger: Ledger{"2026-01-01": 1}}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"completedDates":{"2026-01-01":true}`) {
		t.Errorf("unexpected encoding: %s", data)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	in := []Habit{
		{ID: "a", Name: "Run", Type: TypeBinary, Goal: 1, Frequency: Weekly("Mon", "Fri"),
			Ledger: Ledger{"2026-01-05": 1}, CreatedAt: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)},
		{ID: "b", Name: "Water", Type: TypeNumeric, Goal: 8, Unit: "glasses", Frequency: Daily(),
			Ledger: Ledger{"2026-01-05": 6.5}, Archived: true},
	}
	data, err := EncodeCollection(in)
	if err != nil {
		t.Fatalf("EncodeCollection: %v", err)
	}
	out, err := DecodeCollection(data)
	if err != nil {
		t.Fatalf("DecodeCollection: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d", len(out))
	}
	if out[1].Ledger.Amount("2026-01-05") != 6.5 || !out[1].Archived || out[1].Unit != "glasses" {
		t.Errorf("numeric habit not preserved: %+v", out[1])
	}
	if !out[0].CreatedAt.Equal(in[0].CreatedAt) {
		t.Errorf("createdAt = %v", out[0].CreatedAt)
	}
}

func TestDecodeCollection_RejectsNonArray(t *testing.T) {
	for _, payload := range []string{`{"habits":[]}`, `"x"`, ``, `42`} {
		_, err := DecodeCollection([]byte(payload))
		if !apperr.IsValidation(err) {
			t.Errorf("payload %q: err = %v, want validation error", payload, err)
		}
	}
}

func TestSettings_DefaultsMergedUnderSaved(t *testing.T) {
	s, err := DecodeSettings([]byte(`{"weekStart":"Sunday","theme":"light"}`))
	if err != nil {
		t.Fatalf("DecodeSettings: %v", err)
	}
	if s.WeekStartDay() != time.Sunday {
		t.Errorf("week start = %v", s.WeekStartDay())
	}
	if s.AccentColor != "#2dd4bf" || !s.ShowStreakCount {
		t.Errorf("defaults lost: %+v", s)
	}
}

func TestFrequencyValidate(t *testing.T) {
	valid := []*Frequency{Daily(), Weekly("Mon", "Sun"), Weekly(), Interval(time.Now(), 3)}
	for _, f := range valid {
		if err := f.Validate(); err != nil {
			t.Errorf("%+v: unexpected error %v", f, err)
		}
	}
	invalid := []Frequency{
		{Kind: "monthly"},
		{Kind: FrequencyWeekly, Days: []string{"Funday"}},
		{Kind: FrequencyInterval, Every: 0},
		{Kind: FrequencyInterval, Every: 2, StartDate: "soon"},
	}
	for _, f := range invalid {
		if err := f.Validate(); err == nil {
			t.Errorf("%+v: expected validation error", f)
		}
	}
}
