// Package decider implements the Decider (spec.md §4.3): the LLM call that
// turns the current observation into the next Action, with a heuristic and
// graduated-retry fallback so a single malformed LLM response never cascades
// into premature completion of every remaining objective — the historical
// bug this component exists to prevent.
package decider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/pilot/pkg/llm"
	"github.com/entrhq/pilot/pkg/types"
)

const (
	maxHistoryRegions    = 40
	maxResearchNoteChars = 3000
	maxPageTextChars     = 4000
)

// Context bundles everything the orchestrator has assembled for one
// decide() call, per spec.md §4.3's prompt composition list.
type Context struct {
	ContextPrompt    string // task, strategy, step title/description/targetUrl, plan summary, notes
	CurrentURL       string
	History          string // formatted short-term history block
	VisibleText      string // raw innerText, up to 4000 chars
	Regions          []types.Region
	LastAction       *types.Action
	LastOutcome      *types.Outcome
	ScrollStatus     string // "auto-scroll ran N times, visible=%v, bottomReached=%v"
	StepNumber       int
	Feedback         string // optional correction from a prior validation failure
}

// Decider calls the LLM to decide the next action, falling back to a
// heuristic when the LLM is unavailable or its answer doesn't validate.
type Decider struct {
	provider llm.Provider

	mu      sync.Mutex
	retries map[string]int // sessionID -> consecutive null-LLM-result count
}

// New creates a Decider backed by provider.
func New(provider llm.Provider) *Decider {
	return &Decider{
		provider: provider,
		retries:  make(map[string]int),
	}
}

// Decide returns the next Action for sessionID given ctx. Always returns a
// usable Decision — heuristic fallback guarantees this — decider failure is
// only ever visible as which path produced the result.
func (d *Decider) Decide(ctx context.Context, sessionID string, dctx Context) types.Decision {
	decision := d.callLLM(ctx, dctx)
	if decision != nil {
		d.resetRetries(sessionID)
		return *decision
	}
	return d.heuristicFallback(sessionID, dctx)
}

func (d *Decider) callLLM(ctx context.Context, dctx Context) *types.Decision {
	prompt := buildPrompt(dctx)
	messages := []*types.Message{
		types.NewSystemMessage(systemPrompt),
		types.NewUserMessage(prompt),
	}

	resp, err := d.provider.Complete(ctx, messages)
	if err != nil {
		return nil
	}

	return parseDecision(resp.Content)
}

func (d *Decider) resetRetries(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.retries, sessionID)
}

const systemPrompt = `You are the decision component of a browser automation agent. Given the current page observation, respond with a single JSON object describing exactly one next action. Never invent fill values not present in the task. Never repeat the same action if stateChanged was false last time. Stay within the current step's objective. DONE means the objective's goal is satisfied, not merely that a search results page opened; for research objectives DONE requires that content was actually extracted, not just found.`

func buildPrompt(dctx Context) string {
	var b strings.Builder
	b.WriteString(dctx.ContextPrompt)
	b.WriteString("\n\nCurrent URL: ")
	b.WriteString(dctx.CurrentURL)
	b.WriteString("\n\nRecent actions:\n")
	b.WriteString(dctx.History)

	text := dctx.VisibleText
	if len(text) > maxPageTextChars {
		text = text[:maxPageTextChars]
	}
	b.WriteString("\n\nVisible page text:\n")
	b.WriteString(text)

	b.WriteString("\n\nInteractive regions:\n")
	regions := dctx.Regions
	if len(regions) > maxHistoryRegions {
		regions = regions[:maxHistoryRegions]
	}
	for _, r := range regions {
		b.WriteString(fmt.Sprintf("- %s [%s] %q", r.Identity, r.Role, r.Label))
		if r.Href != "" {
			b.WriteString(" href=" + r.Href)
		}
		b.WriteString("\n")
	}

	if dctx.LastAction != nil && dctx.LastOutcome != nil {
		b.WriteString(fmt.Sprintf("\nLast action: %s, stateChanged=%v\n", dctx.LastAction.Type, dctx.LastOutcome.StateChanged()))
	}

	if dctx.ScrollStatus != "" {
		b.WriteString("\nScroll status: " + dctx.ScrollStatus + "\n")
	}

	if dctx.Feedback != "" {
		b.WriteString("\nYour previous response was invalid: " + dctx.Feedback + "\n")
	}

	b.WriteString(`
Respond with exactly one JSON object of shape:
{"type": "<ACTION_TAG>", "regionId": "...", "role": "...", "name": "...", "selector": "...", "value": "...", "key": "...", "direction": "up|down", "amountPx": 0, "durationMs": 0, "until": "load|domcontentloaded|networkidle", "message": "...", "actionId": "...", "reason": "...", "description": "...", "confidence": 0.0, "reasoning": "..."}
Only include the fields relevant to the chosen type.`)

	return b.String()
}

type decisionJSON struct {
	Type        string  `json:"type"`
	RegionID    string  `json:"regionId"`
	Role        string  `json:"role"`
	Name        string  `json:"name"`
	Selector    string  `json:"selector"`
	Value       string  `json:"value"`
	Key         string  `json:"key"`
	Direction   string  `json:"direction"`
	AmountPx    int     `json:"amountPx"`
	DurationMs  int     `json:"durationMs"`
	Until       string  `json:"until"`
	Message     string  `json:"message"`
	ActionID    string  `json:"actionId"`
	Reason      string  `json:"reason"`
	Description string  `json:"description"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   *string  `json:"reasoning"`
}

// parseDecision extracts the first {...} span from raw, auto-patches the two
// known-optional fields (confidence, reasoning), and validates the result.
// Returns nil — the "no LLM answer" sentinel — on any failure.
func parseDecision(raw string) *types.Decision {
	span := extractJSONObject(raw)
	if span == "" {
		return nil
	}

	var dj decisionJSON
	if err := json.Unmarshal([]byte(span), &dj); err != nil {
		return nil
	}

	if dj.Confidence == nil {
		v := 0.5
		dj.Confidence = &v
	}
	if dj.Reasoning == nil {
		v := "no reasoning provided"
		dj.Reasoning = &v
	}

	actionType := types.ActionType(dj.Type)
	if !validActionType(actionType) {
		return nil
	}

	action := types.Action{
		Type:        actionType,
		RegionID:    dj.RegionID,
		Role:        types.Role(dj.Role),
		Name:        dj.Name,
		Selector:    dj.Selector,
		Value:       dj.Value,
		Key:         dj.Key,
		Direction:   types.ScrollDirection(dj.Direction),
		AmountPx:    dj.AmountPx,
		DurationMs:  dj.DurationMs,
		Until:       types.WaitUntilState(dj.Until),
		Message:     dj.Message,
		ActionID:    dj.ActionID,
		Reason:      dj.Reason,
		Description: dj.Description,
	}

	return &types.Decision{
		Action:     action,
		Reasoning:  *dj.Reasoning,
		Confidence: *dj.Confidence,
	}
}

func validActionType(t types.ActionType) bool {
	switch t {
	case types.ActionVisionClick, types.ActionDOMClick, types.ActionVisionFill, types.ActionDOMFill,
		types.ActionKeyPress, types.ActionScroll, types.ActionWait, types.ActionAskUser,
		types.ActionConfirm, types.ActionDone:
		return true
	default:
		return false
	}
}

// extractJSONObject returns the first balanced {...} span in raw, tolerating
// a markdown fence around it.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}
