// Package sqlite persists replay logs in a SQLite database using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/agenttrace/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS trace_sessions (
	id TEXT PRIMARY KEY,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS replay_events (
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	event_id TEXT NOT NULL,
	type TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT '',
	payload TEXT NOT NULL DEFAULT '',
	ts TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// Store implements core.LogStore on SQLite. Entries are write-once: the
// store only ever inserts rows.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// from being split across pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create registers sessionID. Creating an existing session keeps its log.
func (s *Store) Create(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO trace_sessions (id) VALUES (?)`, sessionID); err != nil {
		return fmt.Errorf("create session %s: %w", sessionID, err)
	}
	return nil
}

// Append inserts events after the existing entries of the session, creating
// the session if needed.
func (s *Store) Append(ctx context.Context, sessionID string, events ...core.ReplayEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO trace_sessions (id) VALUES (?)`, sessionID); err != nil {
		return fmt.Errorf("create session %s: %w", sessionID, err)
	}

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM replay_events WHERE session_id = ?`, sessionID).Scan(&next); err != nil {
		return fmt.Errorf("read log length of %s: %w", sessionID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO replay_events (session_id, seq, event_id, type, text, author, payload, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, ev := range events {
		if _, err := stmt.ExecContext(ctx, sessionID, next+i, ev.ID, string(ev.Type), ev.Text, ev.Author, string(ev.Payload), ev.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("append event to %s: %w", sessionID, err)
		}
	}
	return tx.Commit()
}

// Load returns the session log ordered by index.
func (s *Store) Load(ctx context.Context, sessionID string) ([]core.ReplayEvent, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM trace_sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT seq, event_id, type, text, author, payload, ts FROM replay_events WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []core.ReplayEvent{}
	for rows.Next() {
		var (
			ev      core.ReplayEvent
			typ     string
			payload string
			ts      string
		)
		if err := rows.Scan(&ev.Index, &ev.ID, &typ, &ev.Text, &ev.Author, &payload, &ts); err != nil {
			return nil, err
		}
		ev.Type = core.ReplayType(typ)
		if payload != "" {
			ev.Payload = []byte(payload)
		}
		if ev.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp of entry %d: %w", ev.Index, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Delete drops the session and its log.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM replay_events WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trace_sessions WHERE id = ?`, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// Sessions lists the ids of stored sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM trace_sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
