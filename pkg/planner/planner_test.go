package planner

import (
	"testing"

	"github.com/entrhq/pilot/pkg/types"
)

func TestParsePlanValid(t *testing.T) {
	raw := `{"strategy": "simple-action", "needsSynthesis": false, "steps": [{"id": 0, "title": "Click link", "description": "click it", "needsAuth": false, "targetUrl": ""}]}`
	plan, ok := parsePlan(raw)
	if !ok {
		t.Fatal("parsePlan() ok = false, want true")
	}
	if len(plan.Steps) != 1 || plan.Steps[0].Title != "Click link" {
		t.Errorf("plan.Steps = %+v", plan.Steps)
	}
}

func TestParsePlanRejectsEmptySteps(t *testing.T) {
	if _, ok := parsePlan(`{"strategy": "x", "steps": []}`); ok {
		t.Fatal("parsePlan() ok = true, want false for empty steps")
	}
}

func TestParsePlanRejectsMissingTitle(t *testing.T) {
	if _, ok := parsePlan(`{"steps": [{"id": 0}]}`); ok {
		t.Fatal("parsePlan() ok = true, want false for missing title")
	}
}

func TestParsePlanCapsAt15Steps(t *testing.T) {
	raw := `{"steps": [`
	for i := 0; i < 20; i++ {
		if i > 0 {
			raw += ","
		}
		raw += `{"id": 0, "title": "step"}`
	}
	raw += `]}`

	plan, ok := parsePlan(raw)
	if !ok {
		t.Fatal("parsePlan() ok = false")
	}
	if len(plan.Steps) != types.MaxPlanSteps {
		t.Errorf("len(Steps) = %d, want %d", len(plan.Steps), types.MaxPlanSteps)
	}
}

func TestHeuristicPlanSplitsOnThenCommaPeriod(t *testing.T) {
	plan := heuristicPlan("go to the site, then search for shoes. add to cart")
	if len(plan.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3, got %+v", len(plan.Steps), plan.Steps)
	}
	if plan.NeedsSynthesis {
		t.Error("heuristic plan NeedsSynthesis = true, want false")
	}
}

func TestHeuristicPlanFlagsLoginKeyword(t *testing.T) {
	plan := heuristicPlan("log in to the portal")
	if !plan.Steps[0].NeedsAuth {
		t.Error("NeedsAuth = false, want true for a step naming login")
	}
}

func TestHeuristicPlanFallsBackToWholeTaskWhenNoSeparators(t *testing.T) {
	plan := heuristicPlan("do a single thing")
	if len(plan.Steps) != 1 {
		t.Fatalf("len(Steps) = %d, want 1", len(plan.Steps))
	}
}
