// Package planner implements the Planner and its Scout preflight (spec.md
// §4.2): turning a natural-language task into an ordered plan of objectives,
// with the scout verifying ambiguous institution-specific URLs first.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/pilot/pkg/llm"
	"github.com/entrhq/pilot/pkg/types"
)

const planningSystemPrompt = `You plan a browser-automation task into an ordered list of granular, atomic objectives. Classify the task as simple-action, deep-research, or transactional. A search-results page is never the final answer for a deep-research task — a step must actually visit and read sources. Mark needsAuth true for any step that requires human login, MFA, or other manual credential entry. Only set targetUrl on a step when a verified URL was supplied to you; never invent one.`

// Planner turns a task into a Plan, running the Scout preflight first.
type Planner struct {
	provider llm.Provider
	scout    *Scout
}

// New creates a Planner. scout may be nil to skip the preflight entirely
// (e.g. in tests).
func New(provider llm.Provider, scout *Scout) *Planner {
	return &Planner{provider: provider, scout: scout}
}

// Plan implements plan(task) -> {strategy, needsSynthesis, steps[]}.
func (p *Planner) Plan(ctx context.Context, task string) types.Plan {
	var verified []VerifiedURL
	if p.scout != nil {
		verified = p.scout.Run(ctx, task)
	}

	plan, ok := p.callLLM(ctx, task, verified)
	if ok {
		return plan
	}
	return heuristicPlan(task)
}

func (p *Planner) callLLM(ctx context.Context, task string, verified []VerifiedURL) (types.Plan, bool) {
	prompt := buildPlanningPrompt(task, verified)
	messages := []*types.Message{
		types.NewSystemMessage(planningSystemPrompt),
		types.NewUserMessage(prompt),
	}

	resp, err := p.provider.Complete(ctx, messages)
	if err != nil {
		return types.Plan{}, false
	}

	return parsePlan(resp.Content)
}

func buildPlanningPrompt(task string, verified []VerifiedURL) string {
	var b strings.Builder
	b.WriteString("Task: ")
	b.WriteString(task)

	if len(verified) > 0 {
		b.WriteString("\n\nVerified URLs from search (use these, do not invent others):\n")
		for _, v := range verified {
			b.WriteString(fmt.Sprintf("- %s: %s\n", v.Title, v.URL))
		}
	}

	b.WriteString(`

Respond with exactly one JSON object of shape:
{"strategy": "...", "needsSynthesis": false, "steps": [{"id": 0, "title": "...", "description": "...", "needsAuth": false, "targetUrl": ""}]}
At most 15 steps.`)

	return b.String()
}

type planJSON struct {
	Strategy       string `json:"strategy"`
	NeedsSynthesis bool   `json:"needsSynthesis"`
	Steps          []struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		NeedsAuth   bool   `json:"needsAuth"`
		TargetURL   string `json:"targetUrl"`
	} `json:"steps"`
}

// parsePlan extracts the first {...} span, validates it against the plan
// schema, and returns (plan, false) on any failure so the caller falls back
// to the heuristic planner.
func parsePlan(raw string) (types.Plan, bool) {
	span := extractJSONObject(raw)
	if span == "" {
		return types.Plan{}, false
	}

	var pj planJSON
	if err := json.Unmarshal([]byte(span), &pj); err != nil {
		return types.Plan{}, false
	}
	if len(pj.Steps) == 0 {
		return types.Plan{}, false
	}

	steps := make([]types.Step, 0, len(pj.Steps))
	for _, s := range pj.Steps {
		if s.Title == "" {
			return types.Plan{}, false
		}
		steps = append(steps, types.Step{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			NeedsAuth:   s.NeedsAuth,
			TargetURL:   s.TargetURL,
		})
	}
	if len(steps) > types.MaxPlanSteps {
		steps = steps[:types.MaxPlanSteps]
	}

	return types.Plan{Strategy: pj.Strategy, NeedsSynthesis: pj.NeedsSynthesis, Steps: steps}, true
}

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

var loginKeywordPattern = regexp.MustCompile(`(?i)\b(log ?in|sign ?in|password|mfa|two-factor|authenticate)\b`)

// maxHeuristicPlanSteps caps the no-LLM fallback at 10 objectives, tighter
// than the general 15-step plan limit — an unparsed task is the least
// reliable source a plan can come from, so the fallback stays conservative.
const maxHeuristicPlanSteps = 10

// heuristicPlan splits task on "then"/","/"." into up to 10 objectives,
// matching spec.md §4.2's output-parsing fallback exactly.
func heuristicPlan(task string) types.Plan {
	parts := splitOnAny(task, []string{" then ", ",", "."})

	steps := make([]types.Step, 0, len(parts))
	for i, part := range parts {
		title := strings.TrimSpace(part)
		if title == "" {
			continue
		}
		steps = append(steps, types.Step{
			ID:        i,
			Title:     title,
			NeedsAuth: loginKeywordPattern.MatchString(title),
		})
		if len(steps) == maxHeuristicPlanSteps {
			break
		}
	}

	if len(steps) == 0 {
		steps = []types.Step{{ID: 0, Title: strings.TrimSpace(task)}}
	}

	return types.Plan{Strategy: "heuristic fallback", NeedsSynthesis: false, Steps: steps}
}

func splitOnAny(s string, seps []string) []string {
	current := []string{s}
	for _, sep := range seps {
		var next []string
		for _, piece := range current {
			next = append(next, strings.Split(piece, sep)...)
		}
		current = next
	}
	return current
}
