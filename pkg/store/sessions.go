package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SessionRow mirrors the sessions table.
type SessionRow struct {
	ID        string
	Task      string
	StartURL  string
	Status    string
	CreatedAt int64
	UpdatedAt int64
}

// SessionRepo handles persistence for the sessions table.
type SessionRepo struct{}

// Create inserts a new session row.
func (r *SessionRepo) Create(ctx context.Context, db *sql.DB, row SessionRow) error {
	const q = `INSERT INTO sessions (id, task, start_url, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q, row.ID, row.Task, row.StartURL, row.Status, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateStatus updates a session's status and updated_at timestamp.
func (r *SessionRepo) UpdateStatus(ctx context.Context, db *sql.DB, id, status string, updatedAt int64) error {
	const q = `UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, q, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// GetByID retrieves a session by id.
func (r *SessionRepo) GetByID(ctx context.Context, db *sql.DB, id string) (*SessionRow, error) {
	const q = `SELECT id, task, start_url, status, created_at, updated_at FROM sessions WHERE id = ?`
	row := db.QueryRowContext(ctx, q, id)

	var out SessionRow
	if err := row.Scan(&out.ID, &out.Task, &out.StartURL, &out.Status, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &out, nil
}
