package types

import "sync"

// Status is a session's externally visible lifecycle state.
type Status string

const (
	StatusStarted   Status = "started"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusStopped   Status = "stopped"
)

// PauseKind distinguishes the two reasons a session can be paused.
type PauseKind string

const (
	PauseAskUser PauseKind = "ASK_USER"
	PauseConfirm PauseKind = "CONFIRM"
)

// Session is one task's worth of state, created on task arrival and
// destroyed only on an explicit stop — never on completion, so the user can
// keep inspecting the browser afterwards.
//
// Invariants (spec §3): PlanIndex never exceeds len(Plan.Steps) (I2); a
// Paused session always carries a PendingAction or PausedForHumanObjective
// (I3); Task is read-only after construction (I5).
type Session struct {
	mu sync.Mutex

	ID   string
	Task string // original task text, verbatim, read-only after creation

	Plan      Plan
	PlanIndex int

	CompletedObjectives []string
	ResearchNotes       []ResearchNote

	Paused                   bool
	PendingAction            *Action
	PauseKind                PauseKind
	PausedForHumanObjective  *Step

	NeedsSynthesis bool // snapshot of Plan.NeedsSynthesis at creation time; see DESIGN.md Open Questions

	StepCounter int
}

// NewSession constructs a session for a freshly arrived task. The plan is
// attached later, once the planner returns.
func NewSession(id, task string) *Session {
	return &Session{ID: id, Task: task}
}

// Lock/Unlock expose the session's mutex so the orchestrator can serialize
// access from the traversal loop and the inbound-message handler without
// each component needing its own lock.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// NextStepNumber increments and returns the session-wide step counter.
func (s *Session) NextStepNumber() int {
	s.StepCounter++
	return s.StepCounter
}

// CurrentStep returns the step at PlanIndex, or nil if the plan is
// exhausted (I2 guarantees PlanIndex <= len(Steps), so only the terminal
// "exhausted" case needs handling here).
func (s *Session) CurrentStep() *Step {
	if s.PlanIndex >= len(s.Plan.Steps) {
		return nil
	}
	return &s.Plan.Steps[s.PlanIndex]
}

// SetPendingAction marks the session paused with a pending action awaiting
// the user's answer (a CONFIRM approval or an ASK_USER reply, per pauseKind).
func (s *Session) SetPendingAction(action Action, pauseKind PauseKind) {
	s.Paused = true
	s.PendingAction = &action
	s.PauseKind = pauseKind
	s.PausedForHumanObjective = nil
}

// SetPausedForHumanObjective marks the session paused on a human-owned step
// (ASK_USER for auth/manual steps, not a specific proposed action).
func (s *Session) SetPausedForHumanObjective(step *Step) {
	s.Paused = true
	s.PendingAction = nil
	s.PauseKind = PauseAskUser
	s.PausedForHumanObjective = step
}

// ClearPause resumes the session, clearing both pause markers (I3).
func (s *Session) ClearPause() {
	s.Paused = false
	s.PendingAction = nil
	s.PausedForHumanObjective = nil
}

// AppendResearchNote records a finding tagged with its originating step.
func (s *Session) AppendResearchNote(stepTitle, text string) {
	s.ResearchNotes = append(s.ResearchNotes, NewResearchNote(stepTitle, text))
}

// MarkObjectiveDone records the current step's title as completed and
// advances PlanIndex, preserving I2.
func (s *Session) MarkObjectiveDone() {
	if step := s.CurrentStep(); step != nil {
		s.CompletedObjectives = append(s.CompletedObjectives, step.Title)
	}
	if s.PlanIndex < len(s.Plan.Steps) {
		s.PlanIndex++
	}
}

// Exhausted reports whether every plan step has been visited.
func (s *Session) Exhausted() bool {
	return s.PlanIndex >= len(s.Plan.Steps)
}
