// Package verifier performs the post-action sanity check described in
// spec.md §4.6: it captures the page's state after an action and describes
// what changed. It never gates continuation — the agent loop's own
// stateChanged comparison (types.Outcome.StateChanged) is the signal that
// matters; this package only produces the human-readable log line.
package verifier

import (
	"fmt"

	"github.com/entrhq/pilot/pkg/browser"
	"github.com/entrhq/pilot/pkg/types"
)

const visibleTextSampleLen = 400

// Snapshot captures the page state the agent loop compares before and after
// an action to compute types.Outcome.StateChanged.
func Snapshot(s *browser.Session) types.Snapshot {
	text, _ := s.InnerText(visibleTextSampleLen)
	return types.Snapshot{
		URL:   s.URL(),
		Title: s.Title(),
		Text:  types.NormalizeSnapshot(text),
	}
}

// Verify captures the post-action snapshot and describes what was observed.
// The execution context can be destroyed by a navigation the action itself
// triggered. Verify never returns an error: Session.Title returns "" on
// failure and Snapshot discards an InnerText error, so a failed read just
// leaves that field of the after snapshot empty and it is compared as is.
func Verify(s *browser.Session, before types.Snapshot) (types.Outcome, string) {
	after := Snapshot(s)
	outcome := types.Outcome{
		URLBefore:   before.URL,
		URLAfter:    after.URL,
		TitleBefore: before.Title,
		TitleAfter:  after.Title,
		TextBefore:  before.Text,
		TextAfter:   after.Text,
	}

	if outcome.URLBefore != outcome.URLAfter {
		return outcome, fmt.Sprintf("navigated to %s", outcome.URLAfter)
	}
	if outcome.TitleBefore != outcome.TitleAfter {
		return outcome, fmt.Sprintf("page title changed to %q", outcome.TitleAfter)
	}
	if outcome.TextBefore != outcome.TextAfter {
		return outcome, "page content changed"
	}
	return outcome, "no observable change"
}
