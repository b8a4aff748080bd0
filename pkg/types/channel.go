package types

import "time"

// ClientMessageType is the tag of an inbound, client-to-server message.
type ClientMessageType string

const (
	ClientMessageTask         ClientMessageType = "task"
	ClientMessageStop         ClientMessageType = "stop"
	ClientMessageConfirmation ClientMessageType = "confirmation"
)

// ClientMessage is an inbound JSON-framed message from an observing client.
// Only the fields relevant to Type are populated.
type ClientMessage struct {
	Type ClientMessageType `json:"type"`
	Data ClientMessageData `json:"data"`
}

// ClientMessageData is the payload union for ClientMessage.
type ClientMessageData struct {
	Task      string `json:"task,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Approved  bool   `json:"approved,omitempty"`
	ActionID  string `json:"actionId,omitempty"`
}

// NewTaskMessage builds a "task" inbound message. The server starts a new
// task for it under the given sessionID; a task message never resumes an
// existing session.
func NewTaskMessage(task, sessionID string) *ClientMessage {
	return &ClientMessage{Type: ClientMessageTask, Data: ClientMessageData{Task: task, SessionID: sessionID}}
}

// NewStopMessage builds a "stop" inbound message.
func NewStopMessage(sessionID string) *ClientMessage {
	return &ClientMessage{Type: ClientMessageStop, Data: ClientMessageData{SessionID: sessionID}}
}

// NewConfirmationMessage builds a "confirmation" inbound message.
func NewConfirmationMessage(sessionID string, approved bool, actionID string) *ClientMessage {
	return &ClientMessage{
		Type: ClientMessageConfirmation,
		Data: ClientMessageData{SessionID: sessionID, Approved: approved, ActionID: actionID},
	}
}

// Phase tags a log event with the agent-loop stage that produced it.
type Phase string

const (
	PhaseObserve  Phase = "OBSERVE"
	PhaseDecide   Phase = "DECIDE"
	PhaseAct      Phase = "ACT"
	PhaseVerify   Phase = "VERIFY"
	PhaseNavigate Phase = "NAVIGATE"
	PhasePlanning Phase = "PLANNING"
	PhaseSynthesis Phase = "SYNTHESIS"
)

// ServerEventType is the tag of an outbound, server-to-client event.
type ServerEventType string

const (
	ServerEventLog        ServerEventType = "log"
	ServerEventScreenshot ServerEventType = "screenshot"
	ServerEventStatus     ServerEventType = "status"
	ServerEventError      ServerEventType = "error"
)

// ServerEvent is an outbound JSON-framed event pushed to every listener of
// a session's client channel. Only the fields relevant to Type are
// populated.
type ServerEvent struct {
	Type ServerEventType `json:"type"`
	Data ServerEventData `json:"data"`
}

// ServerEventData is the payload union for ServerEvent.
type ServerEventData struct {
	// log
	Step      int    `json:"step,omitempty"`
	Phase     Phase  `json:"phase,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`

	// screenshot
	SessionID      string   `json:"sessionId,omitempty"`
	ScreenshotPath string   `json:"screenshotPath,omitempty"`
	Observation    string   `json:"observation,omitempty"`
	Regions        []Region `json:"regions,omitempty"`

	// status
	Status        Status    `json:"status,omitempty"`
	PendingAction *Action   `json:"pendingAction,omitempty"`
	PauseKind     PauseKind `json:"pauseKind,omitempty"`
}

// NewLogEvent builds a "log" outbound event.
func NewLogEvent(step int, phase Phase, message string, err error) *ServerEvent {
	data := ServerEventData{Step: step, Phase: phase, Message: message, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
	if err != nil {
		data.Error = err.Error()
	}
	return &ServerEvent{Type: ServerEventLog, Data: data}
}

// NewScreenshotEvent builds a "screenshot" outbound event.
func NewScreenshotEvent(sessionID string, step int, path, observation string, regions []Region) *ServerEvent {
	return &ServerEvent{
		Type: ServerEventScreenshot,
		Data: ServerEventData{SessionID: sessionID, Step: step, ScreenshotPath: path, Observation: observation, Regions: regions},
	}
}

// NewStatusEvent builds a "status" outbound event.
func NewStatusEvent(sessionID string, status Status, message string) *ServerEvent {
	return &ServerEvent{Type: ServerEventStatus, Data: ServerEventData{SessionID: sessionID, Status: status, Message: message}}
}

// NewPausedStatusEvent builds a "status" event for a paused session.
func NewPausedStatusEvent(sessionID, message string, pendingAction *Action, pauseKind PauseKind) *ServerEvent {
	return &ServerEvent{
		Type: ServerEventStatus,
		Data: ServerEventData{SessionID: sessionID, Status: StatusPaused, Message: message, PendingAction: pendingAction, PauseKind: pauseKind},
	}
}

// NewErrorEvent builds an "error" outbound event.
func NewErrorEvent(message string) *ServerEvent {
	return &ServerEvent{Type: ServerEventError, Data: ServerEventData{Message: message}}
}
