package decider

import (
	"testing"

	"github.com/entrhq/pilot/pkg/types"
)

func TestExtractJSONObjectFindsBalancedSpan(t *testing.T) {
	raw := "```json\n{\"type\": \"DONE\", \"nested\": {\"a\": 1}}\n```"
	got := extractJSONObject(raw)
	want := `{"type": "DONE", "nested": {"a": 1}}`
	if got != want {
		t.Errorf("extractJSONObject() = %q, want %q", got, want)
	}
}

func TestExtractJSONObjectNoObject(t *testing.T) {
	if got := extractJSONObject("no json here"); got != "" {
		t.Errorf("extractJSONObject() = %q, want empty", got)
	}
}

func TestParseDecisionAutoPatchesOptionalFields(t *testing.T) {
	d := parseDecision(`{"type": "DONE", "reason": "finished"}`)
	if d == nil {
		t.Fatal("parseDecision() = nil, want a decision")
	}
	if d.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5 default", d.Confidence)
	}
	if d.Reasoning == "" {
		t.Error("Reasoning defaulted to empty, want placeholder")
	}
}

func TestParseDecisionRejectsUnknownType(t *testing.T) {
	if d := parseDecision(`{"type": "FLY_TO_MOON"}`); d != nil {
		t.Errorf("parseDecision() = %+v, want nil for invalid type", d)
	}
}

func TestParseDecisionRejectsMalformedJSON(t *testing.T) {
	if d := parseDecision(`{"type": "DONE"`); d != nil {
		t.Errorf("parseDecision() = %+v, want nil for malformed JSON", d)
	}
}

func TestAlreadyDoneActionSearchMarker(t *testing.T) {
	dctx := Context{ContextPrompt: "search for hello", CurrentURL: "https://example.com/results?q=hello"}
	action, ok := alreadyDoneAction(dctx)
	if !ok || action.Type != types.ActionDone {
		t.Fatalf("alreadyDoneAction() = %+v, %v, want DONE", action, ok)
	}
}

func TestAlreadyDoneActionNoMatch(t *testing.T) {
	dctx := Context{ContextPrompt: "click the button", CurrentURL: "https://example.com/"}
	if _, ok := alreadyDoneAction(dctx); ok {
		t.Fatal("alreadyDoneAction() = true, want false")
	}
}

func TestGraduatedRetryRatchetsAndResets(t *testing.T) {
	d := New(nil)

	first := d.graduatedRetry("sess-1")
	if first.Action.Type != types.ActionScroll {
		t.Errorf("attempt 1 = %s, want SCROLL", first.Action.Type)
	}

	second := d.graduatedRetry("sess-1")
	if second.Action.Type != types.ActionWait {
		t.Errorf("attempt 2 = %s, want WAIT", second.Action.Type)
	}

	third := d.graduatedRetry("sess-1")
	if third.Action.Type != types.ActionDone {
		t.Errorf("attempt 3 = %s, want DONE", third.Action.Type)
	}

	d.resetRetries("sess-1")
	afterReset := d.graduatedRetry("sess-1")
	if afterReset.Action.Type != types.ActionScroll {
		t.Errorf("attempt after reset = %s, want SCROLL again", afterReset.Action.Type)
	}
}
