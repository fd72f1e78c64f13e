package cloudsync

import (
	"context"

	"github.com/starford/habitu/internal/habit"
)

// Transport reaches the remote snapshot store.
type Transport interface {
	// FetchSnapshot returns the remote collection; found is false when the
	// user has never synced.
	FetchSnapshot(ctx context.Context, userID string) (habits []habit.Habit, found bool, err error)
	// PushSnapshot stores habits as the user's authoritative snapshot.
	PushSnapshot(ctx context.Context, userID string, habits []habit.Habit) error
}

// StatsPusher is implemented by transports that accept user statistics.
type StatsPusher interface {
	PushStats(ctx context.Context, userID string, stats UserStats) error
}

// UserStats is the public profile pushed after a sync.
type UserStats struct {
	Name   string `json:"name,omitempty"`
	Streak int    `json:"streak"`
}
