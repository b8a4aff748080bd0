package history

import (
	"testing"

	"github.com/entrhq/pilot/pkg/store"
)

func TestOutcomeMarkerPrefersError(t *testing.T) {
	row := store.StepRow{Observation: "clicked ok", Error: "boom"}
	if got := outcomeMarker(row); got != "error: boom" {
		t.Errorf("outcomeMarker() = %q, want %q", got, "error: boom")
	}
}

func TestOutcomeMarkerFallsBackToObservation(t *testing.T) {
	row := store.StepRow{Observation: "navigated to /x"}
	if got := outcomeMarker(row); got != "navigated to /x" {
		t.Errorf("outcomeMarker() = %q, want %q", got, "navigated to /x")
	}
}

func TestFormatForPromptEmpty(t *testing.T) {
	if got := FormatForPrompt(nil); got != "(no prior actions this session)" {
		t.Errorf("FormatForPrompt(nil) = %q", got)
	}
}

func TestFormatForPromptRendersEachEntry(t *testing.T) {
	entries := []Entry{
		{StepNumber: 1, ActionType: "DOM_CLICK", Outcome: "navigated to /a"},
		{StepNumber: 2, ActionType: "DOM_FILL", Outcome: "no observable change"},
	}
	got := FormatForPrompt(entries)
	if got == "" {
		t.Fatal("FormatForPrompt() = empty, want formatted lines")
	}
	want := "step 1: DOM_CLICK -> navigated to /a\nstep 2: DOM_FILL -> no observable change\n"
	if got != want {
		t.Errorf("FormatForPrompt() = %q, want %q", got, want)
	}
}
