package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ArtifactRow mirrors the artifacts table.
type ArtifactRow struct {
	ID         int64
	SessionID  string
	StepNumber int
	FilePath   string
	FileType   string
	CreatedAt  int64
}

// ArtifactRepo handles persistence for the artifacts table.
type ArtifactRepo struct{}

// FileType values named by spec.md §6.
const (
	FileTypeScreenshot = "screenshot"
	FileTypeTrace      = "trace"
)

// Insert records one artifact.
func (r *ArtifactRepo) Insert(ctx context.Context, db *sql.DB, row ArtifactRow) error {
	const q = `INSERT INTO artifacts (session_id, step_number, file_path, file_type, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q, row.SessionID, row.StepNumber, row.FilePath, row.FileType, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// ListBySession returns every artifact recorded for a session, oldest first.
func (r *ArtifactRepo) ListBySession(ctx context.Context, db *sql.DB, sessionID string) ([]ArtifactRow, error) {
	const q = `SELECT id, session_id, step_number, file_path, file_type, created_at FROM artifacts WHERE session_id = ? ORDER BY step_number ASC`

	rows, err := db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var out []ArtifactRow
	for rows.Next() {
		var row ArtifactRow
		if err := rows.Scan(&row.ID, &row.SessionID, &row.StepNumber, &row.FilePath, &row.FileType, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifact rows: %w", err)
	}
	return out, nil
}
