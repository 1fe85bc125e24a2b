// Package db persists match outcomes and per-user win/loss tallies in a
// local sqlite database.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite handle.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the database at path and ensures the schema.
func NewDB(path string) (*DB, error) {
	sdb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent game-end reports.
	sdb.SetMaxOpenConns(1)

	db := &DB{sdb}
	if err := db.createTables(); err != nil {
		sdb.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_code TEXT NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS match_results (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		user_id TEXT NOT NULL,
		did_win INTEGER NOT NULL,
		PRIMARY KEY (match_id, user_id)
	);
	CREATE TABLE IF NOT EXISTS player_stats (
		user_id TEXT PRIMARY KEY,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0
	);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// MatchResult is one participant's outcome in a finished match.
type MatchResult struct {
	UserID string
	DidWin bool
}

// RecordMatch stores a finished match and bumps each participant's tally,
// all in one transaction.
func (db *DB) RecordMatch(ctx context.Context, roomCode string, results []MatchResult) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO matches (room_code, finished_at) VALUES (?, ?)`,
		roomCode, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	matchID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("match id: %w", err)
	}

	for _, r := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO match_results (match_id, user_id, did_win) VALUES (?, ?, ?)`,
			matchID, r.UserID, r.DidWin); err != nil {
			return fmt.Errorf("insert result for %s: %w", r.UserID, err)
		}
		win, loss := 0, 1
		if r.DidWin {
			win, loss = 1, 0
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_stats (user_id, wins, losses) VALUES (?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET
				wins = wins + excluded.wins,
				losses = losses + excluded.losses`,
			r.UserID, win, loss); err != nil {
			return fmt.Errorf("update stats for %s: %w", r.UserID, err)
		}
	}

	return tx.Commit()
}

// PlayerStats is a user's lifetime tally.
type PlayerStats struct {
	UserID string
	Wins   int
	Losses int
}

// GetPlayerStats returns the tally for a user, zeroes if never seen.
func (db *DB) GetPlayerStats(ctx context.Context, userID string) (PlayerStats, error) {
	st := PlayerStats{UserID: userID}
	err := db.QueryRowContext(ctx,
		`SELECT wins, losses FROM player_stats WHERE user_id = ?`,
		userID).Scan(&st.Wins, &st.Losses)
	if err == sql.ErrNoRows {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}
