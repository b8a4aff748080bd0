// Package visibility implements the Semantic Visibility Check (spec.md
// §4.4): a cheap LLM gate asked only whether the current page already shows
// content relevant to the current step, so the agent loop can skip an
// unnecessary auto-scroll pass.
package visibility

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/pilot/pkg/types"
)

const systemPrompt = `You judge whether a web page already shows content, navigation, or links relevant to a stated objective. Accept synonyms (e.g. Dining and Food, Catalog and Classes) and treat navigation that leads toward the objective as relevant. Respond with exactly one word: YES or NO.`

// Checker calls the LLM to answer the single yes/no visibility question.
type Checker struct {
	provider ChatProvider
}

// ChatProvider is the minimal surface visibility needs from an llm.Provider,
// kept narrow so tests can supply a fake without pulling in the real
// provider stack.
type ChatProvider interface {
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)
}

// New creates a Checker. Pass a provider cloned to a cheap/fast model via
// llm.ModelCloner where available — this call runs once per auto-scroll
// iteration and is deliberately budgeted at temperature 0, max 8 tokens.
func New(provider ChatProvider) *Checker {
	return &Checker{provider: provider}
}

// Visible answers spec.md §4.4's visible(taskStep, visibleText, elementLabels)
// contract. On any failure it returns true — don't auto-scroll, let the
// decider handle it — matching the spec's explicit fail-open behavior.
func (c *Checker) Visible(ctx context.Context, taskStep, visibleText string, elementLabels []string) bool {
	prompt := fmt.Sprintf(
		"Objective: %s\n\nVisible page text:\n%s\n\nElement labels on screen:\n%s\n\nIs content relevant to the objective already visible?",
		taskStep, visibleText, strings.Join(elementLabels, ", "),
	)

	messages := []*types.Message{
		types.NewSystemMessage(systemPrompt),
		types.NewUserMessage(prompt),
	}

	resp, err := c.provider.Complete(ctx, messages)
	if err != nil {
		return true
	}

	return parseYesNo(resp.Content)
}

func parseYesNo(raw string) bool {
	answer := strings.ToUpper(strings.TrimSpace(raw))
	if strings.HasPrefix(answer, "NO") {
		return false
	}
	// Any other answer — including a malformed one — fails open to "visible".
	return true
}
