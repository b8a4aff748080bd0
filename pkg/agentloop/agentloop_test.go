package agentloop

import (
	"context"
	"testing"

	"github.com/entrhq/pilot/pkg/types"
	"github.com/entrhq/pilot/pkg/visibility"
)

type fakeChatProvider struct{ response string }

func (f fakeChatProvider) Complete(_ context.Context, _ []*types.Message) (*types.Message, error) {
	return types.NewAssistantMessage(f.response), nil
}

func TestAutoRecoveryGateSkipsWhenNoPriorFill(t *testing.T) {
	l := New(Deps{})
	if _, ok := l.autoRecoveryGate(nil); ok {
		t.Fatal("autoRecoveryGate() ok = true with no prior action, want false")
	}
}

func TestAutoRecoveryGateSkipsWhenStateAlreadyChanged(t *testing.T) {
	l := New(Deps{})
	l.lastAction = &types.Action{Type: types.ActionDOMFill}
	l.lastOutcome = &types.Outcome{URLBefore: "a", URLAfter: "b"}

	if _, ok := l.autoRecoveryGate(nil); ok {
		t.Fatal("autoRecoveryGate() ok = true after a state-changing fill, want false")
	}
}

func TestAutoRecoveryGateEscalatesEnterThenSubmitThenAskUser(t *testing.T) {
	l := New(Deps{})
	l.lastAction = &types.Action{Type: types.ActionDOMFill, RegionID: "element-1"}
	l.lastOutcome = &types.Outcome{}

	regions := []types.Region{{Identity: "element-2", Label: "Search"}}

	action, ok := l.autoRecoveryGate(regions)
	if !ok || action.Type != types.ActionKeyPress || action.Key != "Enter" {
		t.Fatalf("first recovery = %+v, ok=%v, want Enter key press", action, ok)
	}

	action, ok = l.autoRecoveryGate(regions)
	if !ok || action.Type != types.ActionDOMClick || action.RegionID != "element-2" {
		t.Fatalf("second recovery = %+v, ok=%v, want a submit-button click", action, ok)
	}

	action, ok = l.autoRecoveryGate(regions)
	if !ok || action.Type != types.ActionAskUser {
		t.Fatalf("third recovery = %+v, ok=%v, want ASK_USER", action, ok)
	}
}

func TestAutoScrollGateStopsOnceVisibilityConfirmed(t *testing.T) {
	l := New(Deps{Visibility: visibility.New(fakeChatProvider{response: "YES"})})

	if proceed := l.autoScrollGate(context.Background(), ObjectiveContext{}, nil, ""); !proceed {
		t.Error("autoScrollGate() proceed = false, want true once content is already visible")
	}
	if !l.contentVisible {
		t.Error("contentVisible = false, want true")
	}
}

func TestAutoScrollGateShortCircuitsAtCap(t *testing.T) {
	l := New(Deps{})
	l.scrollCount = autoScrollCap
	if proceed := l.autoScrollGate(context.Background(), ObjectiveContext{}, nil, ""); !proceed {
		t.Error("autoScrollGate() proceed = false, want true once the scroll cap is hit")
	}
}
