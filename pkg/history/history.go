// Package history formats the short-term history window the Decider injects
// into its prompt: the last 5 actions of the current session with outcome
// markers, per spec.md §3/§4.3/§6. The window is backed by the steps table
// (store.StepRepo.LastN), not held in memory — a session's history survives
// a process restart the same way its plan progress does.
package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/entrhq/pilot/pkg/store"
)

const windowSize = 5

// Entry is one formatted history line, ready to inject into a decider
// prompt.
type Entry struct {
	StepNumber int
	ActionType string
	Outcome    string
}

// Load fetches the last windowSize steps for sessionID, oldest first.
func Load(ctx context.Context, db *sql.DB, repo *store.StepRepo, sessionID string) ([]Entry, error) {
	rows, err := repo.LastN(ctx, db, sessionID, windowSize)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[len(rows)-1-i] = Entry{
			StepNumber: row.StepNumber,
			ActionType: row.ActionType,
			Outcome:    outcomeMarker(row),
		}
	}
	return entries, nil
}

func outcomeMarker(row store.StepRow) string {
	if row.Error != "" {
		return "error: " + row.Error
	}
	if row.Observation != "" {
		return row.Observation
	}
	return "no observation recorded"
}

// FormatForPrompt renders entries as the plain-text block the Decider's
// prompt composition embeds verbatim.
func FormatForPrompt(entries []Entry) string {
	if len(entries) == 0 {
		return "(no prior actions this session)"
	}
	out := ""
	for _, e := range entries {
		out += fmt.Sprintf("step %d: %s -> %s\n", e.StepNumber, e.ActionType, e.Outcome)
	}
	return out
}
