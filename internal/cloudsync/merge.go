// Package cloudsync reconciles the local habit collection with a remote
// snapshot and pushes the result back upstream.
package cloudsync

import (
	"github.com/google/uuid"

	"github.com/starford/habitu/internal/habit"
)

// Merge combines local with a remote snapshot: every local habit is kept
// as-is and remote habits whose id is unknown locally are appended in remote
// order. A remote habit without an id gets a fresh one here so the pushed
// snapshot carries it and later syncs recognize the record.
//
// Habits present on both sides keep the local version; edits made on the
// other device are discarded. There is no timestamp comparison.
func Merge(local, remote []habit.Habit) []habit.Habit {
	out := habit.CloneAll(local)
	known := make(map[string]struct{}, len(local))
	for _, h := range local {
		known[h.ID] = struct{}{}
	}
	for _, h := range remote {
		h = h.Clone()
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		if _, ok := known[h.ID]; ok {
			continue
		}
		known[h.ID] = struct{}{}
		out = append(out, h)
	}
	return out
}
