package visibility

import (
	"context"
	"errors"
	"testing"

	"github.com/entrhq/pilot/pkg/types"
)

type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return types.NewAssistantMessage(f.response), nil
}

func TestVisibleReturnsFalseOnExplicitNo(t *testing.T) {
	c := New(&fakeProvider{response: "NO"})
	if c.Visible(context.Background(), "find dining options", "some text", nil) {
		t.Error("Visible() = true, want false for NO response")
	}
}

func TestVisibleReturnsTrueOnYes(t *testing.T) {
	c := New(&fakeProvider{response: "YES"})
	if !c.Visible(context.Background(), "find dining options", "some text", nil) {
		t.Error("Visible() = false, want true for YES response")
	}
}

func TestVisibleFailsOpenOnError(t *testing.T) {
	c := New(&fakeProvider{err: errors.New("network down")})
	if !c.Visible(context.Background(), "find dining options", "some text", nil) {
		t.Error("Visible() = false, want true (fail open) when the LLM call errors")
	}
}

func TestVisibleFailsOpenOnMalformedResponse(t *testing.T) {
	c := New(&fakeProvider{response: "maybe?"})
	if !c.Visible(context.Background(), "find dining options", "some text", nil) {
		t.Error("Visible() = false, want true (fail open) for a malformed response")
	}
}
