package store

import (
	"context"
	"database/sql"
	"fmt"
)

// StepRow mirrors the steps table.
type StepRow struct {
	ID             int64
	SessionID      string
	StepNumber     int
	Phase          string
	ActionType     string
	ActionDataJSON string
	Observation    string
	Error          string
	CreatedAt      int64
}

// StepRepo handles persistence for the steps table.
type StepRepo struct{}

// Insert records one step.
func (r *StepRepo) Insert(ctx context.Context, db *sql.DB, row StepRow) error {
	const q = `INSERT INTO steps (session_id, step_number, phase, action_type, action_data_json, observation, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		row.SessionID, row.StepNumber, row.Phase, row.ActionType, row.ActionDataJSON, row.Observation, row.Error, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// LastN implements the short-term history query from spec.md §6:
// SELECT ... FROM steps WHERE sessionId=? ORDER BY stepNumber DESC LIMIT n.
// Rows come back newest-first; callers that want chronological order should
// reverse the slice.
func (r *StepRepo) LastN(ctx context.Context, db *sql.DB, sessionID string, n int) ([]StepRow, error) {
	const q = `SELECT id, session_id, step_number, phase, action_type, action_data_json, observation, error, created_at
FROM steps WHERE session_id = ? ORDER BY step_number DESC LIMIT ?`

	rows, err := db.QueryContext(ctx, q, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("query last steps: %w", err)
	}
	defer rows.Close()

	var out []StepRow
	for rows.Next() {
		var row StepRow
		if err := rows.Scan(&row.ID, &row.SessionID, &row.StepNumber, &row.Phase, &row.ActionType, &row.ActionDataJSON, &row.Observation, &row.Error, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan step row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step rows: %w", err)
	}
	return out, nil
}
