// Package synth implements the Synthesizer (spec.md §4.8): the final pass
// over a deep-research session's accumulated notes, producing one concise,
// well-organized answer instead of leaving the client to stitch together
// raw per-step findings.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/pilot/pkg/llm"
	"github.com/entrhq/pilot/pkg/types"
)

// maxNotesChars bounds how much of the accumulated research notes are fed
// to the synthesis call — the last 6000 characters, per spec.md §4.8.
const maxNotesChars = 6000

const systemPrompt = `You write the final answer for a browser-research task from a set of notes gathered while visiting sources. Be concise and well organized. Name concrete facts, names, and URLs where the notes give them. If the notes leave an obvious gap, say so plainly rather than guessing.`

// Synthesizer turns a session's research notes into one final answer.
type Synthesizer struct {
	provider llm.Provider
}

// New creates a Synthesizer backed by provider.
func New(provider llm.Provider) *Synthesizer {
	return &Synthesizer{provider: provider}
}

// ShouldRun reports spec.md §4.8's synthesis trigger: the plan asked for it,
// and at least one note holds more than a trivial amount of text.
func ShouldRun(needsSynthesis bool, notes []types.ResearchNote) bool {
	if !needsSynthesis {
		return false
	}
	for _, n := range notes {
		if len(n.TextSnippet) > 100 {
			return true
		}
	}
	return false
}

// Synthesize concatenates notes (bounded to the trailing maxNotesChars) and
// asks the LLM for a final answer. On failure it falls back to a plain
// concatenation of the notes so the client still receives something.
func (s *Synthesizer) Synthesize(ctx context.Context, task string, notes []types.ResearchNote) string {
	body := formatNotes(notes)
	if len(body) > maxNotesChars {
		body = body[len(body)-maxNotesChars:]
	}

	messages := []*types.Message{
		types.NewSystemMessage(systemPrompt),
		types.NewUserMessage(fmt.Sprintf("Task: %s\n\nResearch notes:\n%s", task, body)),
	}

	resp, err := s.provider.Complete(ctx, messages)
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		return body
	}
	return resp.Content
}

func formatNotes(notes []types.ResearchNote) string {
	var b strings.Builder
	for _, n := range notes {
		b.WriteString("## ")
		b.WriteString(n.SourceStepTitle)
		b.WriteString("\n")
		b.WriteString(n.TextSnippet)
		b.WriteString("\n\n")
	}
	return b.String()
}
