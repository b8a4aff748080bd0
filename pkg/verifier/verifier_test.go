package verifier

import (
	"testing"

	"github.com/entrhq/pilot/pkg/types"
)

func TestOutcomeStateChangedOnNavigation(t *testing.T) {
	outcome := types.Outcome{URLBefore: "https://a.example/", URLAfter: "https://a.example/x"}
	if !outcome.StateChanged() {
		t.Fatal("StateChanged() = false, want true for differing URLs")
	}
}

func TestOutcomeStateUnchangedWhenNothingDiffers(t *testing.T) {
	outcome := types.Outcome{
		URLBefore: "https://a.example/", URLAfter: "https://a.example/",
		TitleBefore: "Home", TitleAfter: "Home",
		TextBefore: "hello", TextAfter: "hello",
	}
	if outcome.StateChanged() {
		t.Fatal("StateChanged() = true, want false when nothing differs")
	}
}
