package orchestrator

import (
	"testing"

	"github.com/entrhq/pilot/pkg/types"
)

func TestStepLikelyDoneNavigateMatchesHost(t *testing.T) {
	step := types.Step{Title: "Navigate to the product page", TargetURL: "https://example.com/products"}
	if !stepLikelyDone(step, "https://example.com/products/42") {
		t.Fatal("expected navigate step to be likely done once host matches")
	}
	if stepLikelyDone(step, "https://other.com/products") {
		t.Fatal("expected navigate step to stay open on a different host")
	}
}

func TestStepLikelyDoneSearchMatchesResultsURL(t *testing.T) {
	step := types.Step{Title: "Search for hello on the site"}
	if !stepLikelyDone(step, "https://example.com/search?q=hello") {
		t.Fatal("expected search step to be likely done once the URL shows a query marker")
	}
	if stepLikelyDone(step, "https://example.com/") {
		t.Fatal("expected search step to stay open on a bare homepage URL")
	}
}

func TestStepLikelyDoneClickDetailMatchesDeepPage(t *testing.T) {
	step := types.Step{Title: "Click the top search result to open its detail page"}
	if !stepLikelyDone(step, "https://www.youtube.com/watch?v=abc123") {
		t.Fatal("expected click-detail step to be likely done on a deep content URL")
	}
	if stepLikelyDone(step, "https://www.youtube.com/results?search_query=abc") {
		t.Fatal("results page alone should not satisfy a click-detail step")
	}
}

func TestFastForwardSkipsConsecutiveSatisfiedSteps(t *testing.T) {
	session := types.NewSession("s1", "find a video and open it")
	session.Plan = types.Plan{Steps: []types.Step{
		{ID: 1, Title: "Search for the video"},
		{ID: 2, Title: "Click the top result to open its detail page"},
		{ID: 3, Title: "Summarize the video description"},
	}}

	o := &Orchestrator{}
	currentURL := "https://www.youtube.com/watch?v=abc123"

	session.MarkObjectiveDone() // step 1 ("search") completes normally
	o.fastForward(session, currentURL)

	step := session.CurrentStep()
	if step == nil || step.ID != 3 {
		t.Fatalf("expected fast-forward to land on step 3, got %+v", step)
	}
	if len(session.CompletedObjectives) != 2 {
		t.Fatalf("expected 2 completed objectives, got %d", len(session.CompletedObjectives))
	}
}

func TestFastForwardIsIdempotent(t *testing.T) {
	session := types.NewSession("s1", "find a video and open it")
	session.Plan = types.Plan{Steps: []types.Step{
		{ID: 1, Title: "Search for the video"},
		{ID: 2, Title: "Click the top result to open its detail page"},
		{ID: 3, Title: "Summarize the video description"},
	}}

	o := &Orchestrator{}
	currentURL := "https://www.youtube.com/watch?v=abc123"

	session.MarkObjectiveDone()
	o.fastForward(session, currentURL)
	indexAfterFirst := session.PlanIndex

	o.fastForward(session, currentURL)
	if session.PlanIndex != indexAfterFirst {
		t.Fatalf("fast-forward was not idempotent: index moved from %d to %d on a second call", indexAfterFirst, session.PlanIndex)
	}
}

func TestFastForwardStopsAtFirstUnsatisfiedStep(t *testing.T) {
	session := types.NewSession("s1", "do several things")
	session.Plan = types.Plan{Steps: []types.Step{
		{ID: 1, Title: "Search for a widget"},
		{ID: 2, Title: "Read the product reviews"},
		{ID: 3, Title: "Click the top result to open its detail page"},
	}}

	o := &Orchestrator{}

	session.MarkObjectiveDone()
	o.fastForward(session, "https://example.com/search?q=widget")

	step := session.CurrentStep()
	if step == nil || step.ID != 2 {
		t.Fatalf("expected fast-forward to stop at step 2, got %+v", step)
	}
}
