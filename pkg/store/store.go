// Package store provides SQLite-backed persistence for sessions, steps, and
// artifacts, per spec.md §6. modernc.org/sqlite is a pure-Go driver — no
// cgo, keeping the orchestrator a single static binary.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	task       TEXT NOT NULL,
	start_url  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'started',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS steps (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id      TEXT NOT NULL,
	step_number     INTEGER NOT NULL,
	phase           TEXT NOT NULL,
	action_type     TEXT NOT NULL DEFAULT '',
	action_data_json TEXT NOT NULL DEFAULT '',
	observation     TEXT NOT NULL DEFAULT '',
	error           TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_steps_session ON steps(session_id);

CREATE TABLE IF NOT EXISTS artifacts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	step_number INTEGER NOT NULL,
	file_path   TEXT NOT NULL,
	file_type   TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_session ON artifacts(session_id);
`

// NewDB opens (creating if absent) a SQLite database at path and applies the
// schema. Writes are small and non-overlapping per session id (spec §5), so
// a single connection is sufficient and avoids SQLite's multi-writer
// contention entirely.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schemaV1); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
