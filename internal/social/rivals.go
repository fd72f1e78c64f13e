package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/storage"
)

// Rival is a profile added from a snapshot code.
type Rival struct {
	Profile
	AddedAt time.Time `json:"addedAt"`
}

// Rivals keeps the rivals list, persisted under storage.KeyRivals.
type Rivals struct {
	store  storage.Provider
	now    func() time.Time
	logger *slog.Logger

	mu   sync.Mutex
	list []Rival
}

// NewRivals loads the saved rivals list. A missing or unreadable blob starts
// an empty list.
func NewRivals(store storage.Provider, now func() time.Time, logger *slog.Logger) *Rivals {
	r := &Rivals{store: store, now: now, logger: logger, list: []Rival{}}
	data, err := store.Load(storage.KeyRivals)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
	case err != nil:
		logger.Warn("load rivals failed", slog.String("error", err.Error()))
	default:
		if err := json.Unmarshal(data, &r.list); err != nil || r.list == nil {
			logger.Warn("rivals blob unreadable, starting empty")
			r.list = []Rival{}
		}
	}
	return r
}

// List returns a copy of the rivals list.
func (r *Rivals) List() []Rival {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.list)
}

// Add decodes code and inserts the rival, replacing an existing entry with
// the same id in place.
func (r *Rivals) Add(code string) (Rival, error) {
	p, err := DecodeCode(code)
	if err != nil {
		return Rival{}, err
	}
	rival := Rival{Profile: p, AddedAt: r.now().UTC()}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.IndexFunc(r.list, func(x Rival) bool { return x.ID == p.ID }); i >= 0 {
		r.list[i] = rival
	} else {
		r.list = append(r.list, rival)
	}
	r.persist()
	return rival, nil
}

// Remove deletes the rival with id.
func (r *Rivals) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.list, func(x Rival) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("rival %s: %w", id, apperr.ErrNotFound)
	}
	r.list = slices.Delete(r.list, i, i+1)
	r.persist()
	return nil
}

// persist saves the list; failures are logged only. Must be called with mu held.
func (r *Rivals) persist() {
	data, err := json.Marshal(r.list)
	if err != nil {
		r.logger.Error("encode rivals", slog.String("error", err.Error()))
		return
	}
	if err := r.store.Save(storage.KeyRivals, data); err != nil {
		perr := &apperr.PersistenceError{Op: "save", Key: storage.KeyRivals, Err: err}
		r.logger.Error("persist rivals failed", slog.String("error", perr.Error()))
	}
}
