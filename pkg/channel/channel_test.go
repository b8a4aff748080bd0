package channel

import (
	"encoding/json"
	"testing"

	"github.com/entrhq/pilot/pkg/types"
)

func TestDispatchRoutesByMessageType(t *testing.T) {
	h := NewHub()

	var gotTask, gotStop, gotConfirmation *types.ClientMessage
	h.OnTask(func(msg *types.ClientMessage) { gotTask = msg })
	h.OnStop(func(msg *types.ClientMessage) { gotStop = msg })
	h.OnConfirmation(func(msg *types.ClientMessage) { gotConfirmation = msg })

	h.dispatch(types.NewTaskMessage("find prices", ""))
	h.dispatch(types.NewStopMessage("sess-1"))
	h.dispatch(types.NewConfirmationMessage("sess-1", true, "act-1"))

	if gotTask == nil || gotTask.Data.Task != "find prices" {
		t.Errorf("onTask not invoked with expected payload: %+v", gotTask)
	}
	if gotStop == nil || gotStop.Data.SessionID != "sess-1" {
		t.Errorf("onStop not invoked with expected payload: %+v", gotStop)
	}
	if gotConfirmation == nil || !gotConfirmation.Data.Approved || gotConfirmation.Data.ActionID != "act-1" {
		t.Errorf("onConfirmation not invoked with expected payload: %+v", gotConfirmation)
	}
}

func TestBroadcastOnlyReachesSubscribedSession(t *testing.T) {
	h := NewHub()

	a := &client{id: "a", send: make(chan []byte, sendBuffer)}
	b := &client{id: "b", send: make(chan []byte, sendBuffer)}
	h.subscribe("sess-1", a)
	h.subscribe("sess-2", b)

	h.Broadcast("sess-1", types.NewStatusEvent("sess-1", types.StatusRunning, "go"))

	select {
	case msg := <-a.send:
		var evt types.ServerEvent
		if err := json.Unmarshal(msg, &evt); err != nil {
			t.Fatalf("unmarshal broadcast payload: %v", err)
		}
		if evt.Data.SessionID != "sess-1" {
			t.Errorf("got event for session %q, want sess-1", evt.Data.SessionID)
		}
	default:
		t.Error("subscriber of sess-1 received nothing")
	}

	select {
	case <-b.send:
		t.Error("subscriber of sess-2 should not receive sess-1's broadcast")
	default:
	}
}

func TestSubscribeMovesClientBetweenSessions(t *testing.T) {
	h := NewHub()
	c := &client{id: "a", send: make(chan []byte, sendBuffer)}

	h.subscribe("sess-1", c)
	h.subscribe("sess-2", c)

	if _, present := h.sessions["sess-1"][c]; present {
		t.Error("client still subscribed to sess-1 after moving to sess-2")
	}
	if _, present := h.sessions["sess-2"][c]; !present {
		t.Error("client not subscribed to sess-2 after subscribe")
	}
}
