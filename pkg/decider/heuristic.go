package decider

import (
	"strings"

	"github.com/entrhq/pilot/pkg/types"
)

// searchKeywords are the markers checked when looking for a submit/search
// button label to click during the literal-instruction check.
var searchKeywords = []string{"search", "submit", "go", "find"}

// searchResultMarkers flag a URL as already showing search results.
var searchResultMarkers = []string{"search", "results", "?q=", "query="}

// heuristicFallback implements spec.md §4.3's ordered fallback: a literal
// instruction match, then an already-done check, then a graduated retry
// counter that ratchets SCROLL -> WAIT -> DONE across consecutive null LLM
// results for the same session, resetting whenever the LLM answers.
func (d *Decider) heuristicFallback(sessionID string, dctx Context) types.Decision {
	if action, ok := literalInstructionAction(dctx); ok {
		return types.Decision{Action: action, Reasoning: "literal instruction match", Confidence: 0.6}
	}

	if action, ok := alreadyDoneAction(dctx); ok {
		return types.Decision{Action: action, Reasoning: "already-done heuristic", Confidence: 0.5}
	}

	return d.graduatedRetry(sessionID)
}

// literalInstructionAction handles tasks that name their action directly
// ("click first link" or naming a region's label), bypassing the LLM
// entirely when the task text plainly says what to do.
func literalInstructionAction(dctx Context) (types.Action, bool) {
	task := strings.ToLower(dctx.ContextPrompt)
	if strings.Contains(task, "click first link") {
		for _, r := range dctx.Regions {
			if r.Role == types.RoleLink {
				return types.Action{Type: types.ActionDOMClick, RegionID: r.Identity, Description: "click first link"}, true
			}
		}
	}

	for _, r := range dctx.Regions {
		if r.Label != "" && strings.Contains(task, strings.ToLower(r.Label)) {
			return types.Action{Type: types.ActionDOMClick, RegionID: r.Identity, Description: "click " + r.Label}, true
		}
	}

	for _, kw := range searchKeywords {
		if !strings.Contains(task, kw) {
			continue
		}
		for _, r := range dctx.Regions {
			if strings.Contains(strings.ToLower(r.Label), kw) {
				return types.Action{Type: types.ActionDOMClick, RegionID: r.Identity, Description: "click " + r.Label}, true
			}
		}
	}

	return types.Action{}, false
}

// alreadyDoneAction detects a step whose objective is already satisfied by
// the current URL — "navigate to X" with a host match, or "search" with
// search-results markers already present.
func alreadyDoneAction(dctx Context) (types.Action, bool) {
	objective := strings.ToLower(dctx.ContextPrompt)
	url := strings.ToLower(dctx.CurrentURL)

	if strings.Contains(objective, "navigate to") {
		for _, word := range strings.Fields(objective) {
			word = strings.Trim(word, ".,;:")
			if len(word) > 4 && strings.Contains(url, word) {
				return types.Action{Type: types.ActionDone, Reason: "navigation target already reached"}, true
			}
		}
	}

	if strings.Contains(objective, "search") {
		for _, marker := range searchResultMarkers {
			if strings.Contains(url, marker) {
				return types.Action{Type: types.ActionDone, Reason: "search results already showing"}, true
			}
		}
	}

	return types.Action{}, false
}

// graduatedRetry ratchets through SCROLL -> WAIT -> DONE across consecutive
// null-LLM-result calls for sessionID, resetting on any successful LLM
// decision (Decide calls resetRetries there, not here).
func (d *Decider) graduatedRetry(sessionID string) types.Decision {
	d.mu.Lock()
	d.retries[sessionID]++
	attempt := d.retries[sessionID]
	d.mu.Unlock()

	switch attempt {
	case 1:
		return types.Decision{
			Action:    types.Action{Type: types.ActionScroll, Direction: types.ScrollDown},
			Reasoning: "graduated fallback: first null LLM result, scrolling for more context",
		}
	case 2:
		return types.Decision{
			Action:    types.Action{Type: types.ActionWait, DurationMs: 2000},
			Reasoning: "graduated fallback: second null LLM result, waiting",
		}
	default:
		return types.Decision{
			Action:    types.Action{Type: types.ActionDone, Reason: "graduated fallback exhausted"},
			Reasoning: "graduated fallback: third null LLM result, completing objective",
		}
	}
}
