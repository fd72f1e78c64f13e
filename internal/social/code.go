// Package social implements snapshot codes, the rivals list and streak leagues.
package social

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/starford/habitu/internal/apperr"
)

// Profile is the payload carried by a snapshot code.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Streak int    `json:"streak"`
	TS     int64  `json:"ts"` // unix milliseconds at generation
}

// EncodeCode builds a shareable snapshot code for p.
func EncodeCode(p Profile) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// NewCode stamps a profile with now and encodes it.
func NewCode(id, name string, streak int, now time.Time) (string, error) {
	if name == "" {
		name = "Unknown"
	}
	return EncodeCode(Profile{ID: id, Name: name, Streak: streak, TS: now.UnixMilli()})
}

// DecodeCode parses a snapshot code. Codes that are not base64 JSON or lack
// an id, a name or a numeric streak are rejected with a validation error.
func DecodeCode(code string) (Profile, error) {
	code = strings.TrimSpace(code)
	data, err := base64.StdEncoding.DecodeString(code)
	if err != nil {
		// tolerate codes whose padding was lost in copy/paste
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(code, "="))
		if err != nil {
			return Profile{}, invalidCode()
		}
	}
	var raw struct {
		ID     json.RawMessage `json:"id"`
		Name   string          `json:"name"`
		Streak json.RawMessage `json:"streak"`
		TS     int64           `json:"ts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Profile{}, invalidCode()
	}
	id := rawID(raw.ID)
	var streak float64
	if id == "" || raw.Name == "" || json.Unmarshal(raw.Streak, &streak) != nil {
		return Profile{}, invalidCode()
	}
	return Profile{ID: id, Name: raw.Name, Streak: int(streak), TS: raw.TS}, nil
}

func invalidCode() error {
	return apperr.NewValidation("code", "invalid snapshot code")
}

// rawID accepts string or numeric ids.
func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}
