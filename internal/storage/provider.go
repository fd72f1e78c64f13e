// Package storage persists named JSON blobs (habits, settings, rivals).
package storage

// Blob keys.
const (
	KeyHabits         = "habits"
	KeySettings       = "settings"
	KeyRivals         = "rivals"
	KeyUnlockedThemes = "unlockedThemes" // reserved, not read by the engine
)

// Provider is an opaque load/save blob store. Load returns an error wrapping
// apperr.ErrNotFound when nothing is saved under key.
type Provider interface {
	Load(key string) ([]byte, error)
	Save(key string, blob []byte) error
}
