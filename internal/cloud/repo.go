// Package cloud hosts the snapshot store that sync clients reconcile against:
// one habit snapshot and one public stats row per user.
package cloud

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/habitu/internal/apperr"
	"github.com/starford/habitu/internal/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	user_id     TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	habits      TEXT,
	last_synced DATETIME,
	streak      INTEGER NOT NULL DEFAULT 0,
	last_active DATETIME
);

CREATE INDEX IF NOT EXISTS idx_users_streak ON users(streak DESC);
`

// Snapshot is the stored collection of one user.
type Snapshot struct {
	Habits     json.RawMessage `json:"habits"`
	LastSynced time.Time       `json:"lastSynced"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Streak     int       `json:"streak"`
	LastActive time.Time `json:"lastActive"`
}

// Repo persists snapshots and stats in SQLite.
type Repo struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the cloud database at path.
func Open(path string) (*Repo, error) {
	conn, err := sqlite.Open(path, schemaSQL)
	if err != nil {
		return nil, fmt.Errorf("cloud: %w", err)
	}
	return &Repo{conn: conn, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (r *Repo) Close() error {
	return r.conn.Close()
}

// GetSnapshot returns the snapshot of userID or apperr.ErrNotFound.
func (r *Repo) GetSnapshot(ctx context.Context, userID string) (Snapshot, error) {
	var habits sql.NullString
	var synced sql.NullTime
	err := r.conn.QueryRowContext(ctx,
		`SELECT habits, last_synced FROM users WHERE user_id = ?`, userID).Scan(&habits, &synced)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !habits.Valid) {
		return Snapshot{}, apperr.ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("cloud: get snapshot: %w", err)
	}
	return Snapshot{Habits: json.RawMessage(habits.String), LastSynced: synced.Time}, nil
}

// PutSnapshot stores habits as the user's snapshot.
func (r *Repo) PutSnapshot(ctx context.Context, userID string, habits []byte) error {
	now := r.now().UTC()
	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO users (user_id, habits, last_synced, last_active) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			habits = excluded.habits,
			last_synced = excluded.last_synced,
			last_active = excluded.last_active`,
		userID, string(habits), now, now)
	if err != nil {
		return fmt.Errorf("cloud: put snapshot: %w", err)
	}
	return nil
}

// PutStats stores the public profile of userID.
func (r *Repo) PutStats(ctx context.Context, userID, name string, streak int) error {
	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO users (user_id, name, streak, last_active) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = CASE WHEN excluded.name = '' THEN users.name ELSE excluded.name END,
			streak = excluded.streak,
			last_active = excluded.last_active`,
		userID, name, streak, r.now().UTC())
	if err != nil {
		return fmt.Errorf("cloud: put stats: %w", err)
	}
	return nil
}

// Leaderboard lists users by streak, highest first.
func (r *Repo) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.conn.QueryContext(ctx, `
		SELECT user_id, name, streak, last_active FROM users
		ORDER BY streak DESC, user_id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("cloud: leaderboard: %w", err)
	}
	defer rows.Close()

	out := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		var active sql.NullTime
		if err := rows.Scan(&e.UserID, &e.Name, &e.Streak, &active); err != nil {
			return nil, fmt.Errorf("cloud: scan leaderboard: %w", err)
		}
		e.LastActive = active.Time
		out = append(out, e)
	}
	return out, rows.Err()
}
