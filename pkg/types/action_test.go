package types

import "testing"

func TestActionScrollAmountDefaultsTo600(t *testing.T) {
	a := &Action{Type: ActionScroll, Direction: ScrollDown}
	if got := a.ScrollAmount(); got != 600 {
		t.Errorf("ScrollAmount() = %d, want 600", got)
	}

	a.AmountPx = 200
	if got := a.ScrollAmount(); got != 200 {
		t.Errorf("ScrollAmount() = %d, want 200", got)
	}
}

func TestActionIsTerminal(t *testing.T) {
	terminal := []ActionType{ActionDone, ActionAskUser, ActionConfirm}
	for _, typ := range terminal {
		a := &Action{Type: typ}
		if !a.IsTerminal() {
			t.Errorf("IsTerminal() = false for %s, want true", typ)
		}
	}

	nonTerminal := []ActionType{ActionVisionClick, ActionDOMClick, ActionScroll, ActionWait, ActionKeyPress}
	for _, typ := range nonTerminal {
		a := &Action{Type: typ}
		if a.IsTerminal() {
			t.Errorf("IsTerminal() = true for %s, want false", typ)
		}
	}
}

func TestActionTargetsRegion(t *testing.T) {
	cases := []struct {
		action Action
		want   bool
	}{
		{Action{Type: ActionVisionClick, RegionID: "element-aaaaaaaa"}, true},
		{Action{Type: ActionVisionFill, RegionID: "element-aaaaaaaa"}, true},
		{Action{Type: ActionDOMClick, RegionID: "element-aaaaaaaa"}, true},
		{Action{Type: ActionDOMClick, Selector: "#submit"}, false},
		{Action{Type: ActionDOMClick, Role: RoleButton, Name: "Submit"}, false},
		{Action{Type: ActionKeyPress, Key: "Enter"}, false},
		{Action{Type: ActionScroll}, false},
		{Action{Type: ActionDone}, false},
	}
	for _, c := range cases {
		if got := c.action.TargetsRegion(); got != c.want {
			t.Errorf("TargetsRegion() for %+v = %v, want %v", c.action, got, c.want)
		}
	}
}

func TestActionIsFill(t *testing.T) {
	if !(&Action{Type: ActionVisionFill}).IsFill() {
		t.Error("VISION_FILL should be IsFill()")
	}
	if !(&Action{Type: ActionDOMFill}).IsFill() {
		t.Error("DOM_FILL should be IsFill()")
	}
	if (&Action{Type: ActionVisionClick}).IsFill() {
		t.Error("VISION_CLICK should not be IsFill()")
	}
}
