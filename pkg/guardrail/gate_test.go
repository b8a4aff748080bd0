package guardrail

import (
	"testing"

	"github.com/entrhq/pilot/pkg/types"
)

func TestCheckDeniesSecretFillOutright(t *testing.T) {
	g := NewGate(nil, nil, nil)
	action := types.Action{Type: types.ActionDOMFill, RegionID: "element-1", Value: "API_KEY=xyz"}

	result := g.Check(action, nil)
	if result.Allowed || result.RequiresConfirmation {
		t.Fatalf("Check() = %+v, want denied with no confirmation path", result)
	}
}

func TestCheckRequiresConfirmationForSensitiveLabel(t *testing.T) {
	g := NewGate(nil, nil, nil)
	regions := []types.Region{{Identity: "element-1", Label: "Submit Order"}}
	action := types.Action{Type: types.ActionDOMClick, RegionID: "element-1"}

	result := g.Check(action, regions)
	if result.Allowed || !result.RequiresConfirmation {
		t.Fatalf("Check() = %+v, want denied with confirmation required", result)
	}
}

func TestCheckAllowsOrdinaryAction(t *testing.T) {
	g := NewGate(nil, nil, nil)
	regions := []types.Region{{Identity: "element-1", Label: "Next Page"}}
	action := types.Action{Type: types.ActionDOMClick, RegionID: "element-1"}

	result := g.Check(action, regions)
	if !result.Allowed {
		t.Fatalf("Check() = %+v, want allowed", result)
	}
}

func TestAllowedURL(t *testing.T) {
	g := NewGate(nil, nil, []string{"example.com"})

	cases := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"www.example.com", true},
		{"evil-example.com", false},
		{"other.org", false},
	}
	for _, tc := range cases {
		if got := g.AllowedURL(tc.host); got != tc.want {
			t.Errorf("AllowedURL(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}

func TestAllowedURLEmptyAllowlistPermitsAll(t *testing.T) {
	g := NewGate(nil, nil, nil)
	if !g.AllowedURL("anything.example") {
		t.Fatal("AllowedURL() with empty allowlist = false, want true")
	}
}
