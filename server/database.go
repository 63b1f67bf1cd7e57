package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite match history database
type DB struct {
	conn *sql.DB
}

// MatchRow represents a completed match
type MatchRow struct {
	ID        string    `json:"id"`
	Seed      int64     `json:"seed"`
	StartedAt time.Time `json:"startedAt"`
	Duration  float64   `json:"duration"`
	Ticks     uint64    `json:"ticks"`
	Winner    string    `json:"winner"`
	Loser     string    `json:"loser"`
	Draw      bool      `json:"draw"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		conn.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		ticks INTEGER NOT NULL DEFAULT 0,
		winner TEXT NOT NULL DEFAULT '',
		loser TEXT NOT NULL DEFAULT '',
		draw INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS match_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		time REAL NOT NULL,
		kind TEXT NOT NULL,
		actor TEXT NOT NULL DEFAULT '',
		target TEXT NOT NULL DEFAULT '',
		hp INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id);
	CREATE INDEX IF NOT EXISTS idx_matches_started ON matches(started_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RecordMatch stores a completed match
func (db *DB) RecordMatch(row MatchRow) error {
	draw := 0
	if row.Draw {
		draw = 1
	}
	_, err := db.conn.Exec(
		`INSERT INTO matches (id, seed, started_at, duration, ticks, winner, loser, draw)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Seed, row.StartedAt.UTC().Format(time.RFC3339Nano), row.Duration, row.Ticks,
		row.Winner, row.Loser, draw,
	)
	return err
}

// RecentMatches returns the latest stored matches, newest first
func (db *DB) RecentMatches(limit int) ([]MatchRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, seed, started_at, duration, ticks, winner, loser, draw
		FROM matches
		ORDER BY started_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchRow
	for rows.Next() {
		var (
			r       MatchRow
			started string
			draw    int
		)
		if err := rows.Scan(&r.ID, &r.Seed, &started, &r.Duration, &r.Ticks, &r.Winner, &r.Loser, &draw); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.Draw = draw != 0
		result = append(result, r)
	}
	return result, rows.Err()
}

// MatchEvents returns the stored events of one match in tick order
func (db *DB) MatchEvents(matchID string) ([]CombatEvent, error) {
	rows, err := db.conn.Query(`
		SELECT tick, time, kind, actor, target, hp
		FROM match_events
		WHERE match_id = ?
		ORDER BY tick, id`,
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CombatEvent
	for rows.Next() {
		var ev CombatEvent
		var kind string
		if err := rows.Scan(&ev.Tick, &ev.Time, &kind, &ev.Actor, &ev.Target, &ev.HP); err != nil {
			return nil, err
		}
		ev.Kind = EventKind(kind)
		result = append(result, ev)
	}
	return result, rows.Err()
}

// EventCounts returns how many events of each kind a match produced
func (db *DB) EventCounts(matchID string) (map[EventKind]int, error) {
	rows, err := db.conn.Query(
		`SELECT kind, COUNT(*) FROM match_events WHERE match_id = ? GROUP BY kind`,
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[EventKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[EventKind(kind)] = n
	}
	return counts, rows.Err()
}
