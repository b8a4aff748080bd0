// Package orchestrator implements the Session Orchestrator (spec.md §4.8):
// the top-level state machine that takes an arriving task from "started"
// through plan traversal to "completed", "paused", or "error", never
// destroying the session's browser except on an explicit stop.
package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/pilot/pkg/agentloop"
	"github.com/entrhq/pilot/pkg/browser"
	"github.com/entrhq/pilot/pkg/config"
	"github.com/entrhq/pilot/pkg/decider"
	"github.com/entrhq/pilot/pkg/guardrail"
	"github.com/entrhq/pilot/pkg/history"
	"github.com/entrhq/pilot/pkg/planner"
	"github.com/entrhq/pilot/pkg/store"
	"github.com/entrhq/pilot/pkg/synth"
	"github.com/entrhq/pilot/pkg/types"
	"github.com/entrhq/pilot/pkg/visibility"
)

// Emit streams one outbound event to every listener of sessionID's channel.
type Emit func(sessionID string, event *types.ServerEvent)

// Deps bundles every collaborator the orchestrator drives.
type Deps struct {
	Config      *config.Config
	Manager     *browser.SessionManager
	DB          *sql.DB
	Planner     *planner.Planner
	Decider     *decider.Decider
	Visibility  *visibility.Checker
	Gate        *guardrail.Gate
	Synthesizer *synth.Synthesizer
	Emit        Emit
}

// Orchestrator owns every live types.Session and drives its traversal loop
// on its own goroutine, one per session.
type Orchestrator struct {
	deps Deps

	sessionRepo  store.SessionRepo
	stepRepo     store.StepRepo
	artifactRepo store.ArtifactRepo

	mu       sync.Mutex
	sessions map[string]*types.Session
	loops    map[string]*agentloop.Loop
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{
		deps:     deps,
		sessions: make(map[string]*types.Session),
		loops:    make(map[string]*agentloop.Loop),
	}
}

// StartTask implements task arrival: emit "started", plan, persist,
// navigate, then hand off to the traversal loop on its own goroutine.
func (o *Orchestrator) StartTask(ctx context.Context, sessionID, task string) {
	o.emit(sessionID, types.NewStatusEvent(sessionID, types.StatusStarted, "task received"))

	plan := o.deps.Planner.Plan(ctx, task)
	o.emitLog(sessionID, 0, types.PhasePlanning, fmt.Sprintf("plan: %s (%d steps)", plan.Strategy, len(plan.Steps)), nil)

	now := time.Now().Unix()
	startURL := o.deps.Config.StartURL
	if len(plan.Steps) > 0 && plan.Steps[0].TargetURL != "" {
		startURL = plan.Steps[0].TargetURL
	}

	if err := o.sessionRepo.Create(ctx, o.deps.DB, store.SessionRow{
		ID: sessionID, Task: task, StartURL: startURL, Status: string(types.StatusStarted),
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		o.fail(sessionID, "failed to persist session: "+err.Error())
		return
	}

	session := types.NewSession(sessionID, task)
	session.Plan = plan
	session.NeedsSynthesis = plan.NeedsSynthesis

	browserSession, err := o.deps.Manager.StartSession(sessionID, browser.SessionOptions{
		Headless: o.deps.Config.Headless,
		Viewport: &browser.Viewport{Width: o.deps.Config.ViewportWidth, Height: o.deps.Config.ViewportHeight},
	})
	if err != nil {
		o.fail(sessionID, "failed to launch browser: "+err.Error())
		return
	}

	if err := browserSession.Navigate(startURL, browser.NavigateOptions{WaitUntil: "domcontentloaded"}); err != nil {
		o.emitLog(sessionID, 0, types.PhaseNavigate, "initial navigation failed: "+err.Error(), err)
	}

	if err := os.MkdirAll(filepath.Join(o.deps.Config.ArtifactsDir, sessionID), 0o755); err != nil {
		o.emitLog(sessionID, 0, types.PhaseObserve, "failed to create artifacts directory: "+err.Error(), err)
	}

	o.mu.Lock()
	o.sessions[sessionID] = session
	o.loops[sessionID] = agentloop.New(agentloop.Deps{
		SessionID:    sessionID,
		Session:      browserSession,
		Decider:      o.deps.Decider,
		Visibility:   o.deps.Visibility,
		Gate:         o.deps.Gate,
		Emit:         o.loopEmitFunc(sessionID, session),
		OnScreenshot: o.screenshotFunc(sessionID),
		ArtifactsDir: o.deps.Config.ArtifactsDir,
	})
	o.mu.Unlock()

	o.setStatus(ctx, sessionID, types.StatusRunning)
	go o.traverse(ctx, sessionID, true)
}

// Resume continues a paused session after a confirmation response (spec.md
// §4.8's "resume on confirmation"). Three distinct cases: rejected closes
// the browser and stops the session; approved with a pendingAction executes
// it once before re-entering the loop; approved with no pendingAction was a
// human-owned (needsAuth) step, which has no action to execute — it's
// treated as a manual objective completion, so it must be marked done and
// fast-forwarded past like any other completed objective.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string, approved bool) {
	o.mu.Lock()
	session, ok := o.sessions[sessionID]
	loop := o.loops[sessionID]
	o.mu.Unlock()
	if !ok || loop == nil {
		return
	}

	if !approved {
		o.Stop(sessionID)
		return
	}

	session.Lock()
	pendingAction := session.PendingAction
	wasHumanObjective := session.PausedForHumanObjective != nil
	session.ClearPause()
	session.Unlock()

	if pendingAction != nil {
		loop.SetResumeAction(*pendingAction)
	} else if wasHumanObjective {
		session.Lock()
		session.MarkObjectiveDone()
		o.fastForward(session, loop.CurrentURL())
		session.Unlock()
	}

	o.setStatus(ctx, sessionID, types.StatusRunning)
	go o.traverse(ctx, sessionID, false)
}

// Stop tears the session's browser down and forgets it — the one operation
// in this package that actually destroys a session.
func (o *Orchestrator) Stop(sessionID string) {
	o.mu.Lock()
	delete(o.sessions, sessionID)
	delete(o.loops, sessionID)
	o.mu.Unlock()

	_ = o.deps.Manager.CloseSession(sessionID)
	o.emit(sessionID, types.NewStatusEvent(sessionID, types.StatusStopped, "session stopped"))
}

// traverse runs the objective traversal loop: rebind to the newest tab,
// handle a human-owned step, build the objective prompt, run the agent
// loop, and either advance and fast-forward or pause/fail. resetStepCount
// applies to the first objective run only (false on resume); every later
// objective starts with fresh loop counters.
func (o *Orchestrator) traverse(ctx context.Context, sessionID string, resetStepCount bool) {
	for {
		o.mu.Lock()
		session := o.sessions[sessionID]
		loop := o.loops[sessionID]
		o.mu.Unlock()
		if session == nil || loop == nil {
			return
		}

		if bs, err := o.deps.Manager.GetSession(sessionID); err == nil {
			if pages := bs.Pages(); len(pages) > 0 {
				bs.Rebind(pages[len(pages)-1])
			}
		}

		session.Lock()
		step := session.CurrentStep()
		session.Unlock()

		if step == nil {
			o.finishSession(ctx, sessionID, session)
			return
		}

		if step.NeedsAuth {
			session.Lock()
			session.SetPausedForHumanObjective(step)
			session.Unlock()
			o.persistStatus(ctx, sessionID, types.StatusPaused)
			o.emit(sessionID, types.NewPausedStatusEvent(sessionID, "manual step: "+step.Title, nil, types.PauseAskUser))
			return
		}

		octx := o.buildObjectiveContext(session, *step)
		octx.HistoryText = o.LastHistory(ctx, sessionID)
		result := loop.Run(ctx, octx, resetStepCount)
		resetStepCount = true

		if result.PendingAction != nil {
			session.Lock()
			session.SetPendingAction(*result.PendingAction, result.PauseKind)
			session.Unlock()
			o.persistStatus(ctx, sessionID, types.StatusPaused)
			o.emit(sessionID, types.NewPausedStatusEvent(sessionID, result.Reason, result.PendingAction, result.PauseKind))
			return
		}

		if !result.Completed {
			o.emitLog(sessionID, 0, types.PhaseVerify, "objective did not complete: "+result.Reason, nil)
			o.fail(sessionID, "objective failed: "+result.Reason)
			return
		}

		o.recordResearchNote(ctx, sessionID, session, *step)

		session.Lock()
		session.MarkObjectiveDone()
		o.fastForward(session, loop.CurrentURL())
		session.Unlock()

		o.emitLog(sessionID, 0, types.PhaseObserve, "objective complete: "+step.Title, nil)
	}
}

// searchURLMarkers flag a URL as showing search/results content, used by
// fast-forward to recognize a search/type/initiate step as already done.
var searchURLMarkers = []string{"q=", "query=", "search", "results"}

// deepPageURLMarkers flag a URL as a specific content/detail page, used by
// fast-forward to recognize a click-detail step as already done.
var deepPageURLMarkers = []string{"watch?v=", "/in/", "/video/"}

// stepLikelyDone implements the "step likely done" heuristic named by
// spec.md §4.8's fast-forward pass: does the current URL already show the
// outcome the step's free-text title is asking for, without running the
// agent loop on it at all.
func stepLikelyDone(step types.Step, currentURL string) bool {
	title := strings.ToLower(step.Title)
	lowerURL := strings.ToLower(currentURL)

	switch {
	case strings.Contains(title, "navigate") || strings.Contains(title, "go to") || strings.Contains(title, "visit"):
		if step.TargetURL == "" || currentURL == "" {
			return false
		}
		targetHost := hostOf(step.TargetURL)
		return targetHost != "" && targetHost == hostOf(currentURL)
	case strings.Contains(title, "click") && (strings.Contains(title, "detail") || strings.Contains(title, "result") || strings.Contains(title, "listing")):
		return containsAny(lowerURL, deepPageURLMarkers)
	case strings.Contains(title, "search") || strings.Contains(title, "type") || strings.Contains(title, "initiate"):
		return containsAny(lowerURL, searchURLMarkers)
	default:
		return false
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func containsAny(haystack string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(haystack, m) {
			return true
		}
	}
	return false
}

// fastForward implements spec.md §4.8's fast-forward pass: after an
// objective completes, keep skipping ahead while the new current step is
// already satisfied by currentURL, stopping at the first step that isn't.
// Idempotent (P4): once nothing matches, a second call against the same URL
// advances nothing further. Callers hold session's lock.
func (o *Orchestrator) fastForward(session *types.Session, currentURL string) {
	for {
		step := session.CurrentStep()
		if step == nil || !stepLikelyDone(*step, currentURL) {
			return
		}
		session.MarkObjectiveDone()
	}
}

func (o *Orchestrator) buildObjectiveContext(session *types.Session, step types.Step) agentloop.ObjectiveContext {
	session.Lock()
	defer session.Unlock()

	var notes strings.Builder
	for _, n := range session.ResearchNotes {
		notes.WriteString(n.SourceStepTitle + ": " + n.TextSnippet + "\n")
	}

	var completed strings.Builder
	for _, c := range session.CompletedObjectives {
		completed.WriteString("- " + c + "\n")
	}

	return agentloop.ObjectiveContext{
		Task:              session.Task,
		Strategy:          session.Plan.Strategy,
		Step:              step,
		PlanSummary:       completed.String(),
		ResearchNotesTail: notes.String(),
	}
}

// recordResearchNote captures a page-text snippet after every completed
// objective so the eventual synthesis pass has something to draw on.
func (o *Orchestrator) recordResearchNote(ctx context.Context, sessionID string, session *types.Session, step types.Step) {
	o.mu.Lock()
	loop := o.loops[sessionID]
	o.mu.Unlock()
	if loop == nil {
		return
	}

	text, err := loop.CurrentPageText()
	if err != nil || text == "" {
		return
	}
	session.Lock()
	session.AppendResearchNote(step.Title, text)
	session.Unlock()
}

func (o *Orchestrator) finishSession(ctx context.Context, sessionID string, session *types.Session) {
	session.Lock()
	needsSynthesis := session.NeedsSynthesis
	notes := append([]types.ResearchNote(nil), session.ResearchNotes...)
	task := session.Task
	session.Unlock()

	if synth.ShouldRun(needsSynthesis, notes) {
		o.emitLog(sessionID, 0, types.PhaseSynthesis, "RESEARCH FINDINGS:", nil)
		answer := o.deps.Synthesizer.Synthesize(ctx, task, notes)
		o.emitLog(sessionID, 0, types.PhaseSynthesis, answer, nil)
	}

	o.persistStatus(ctx, sessionID, types.StatusCompleted)
	o.emit(sessionID, types.NewStatusEvent(sessionID, types.StatusCompleted, "task complete"))
}

func (o *Orchestrator) fail(sessionID, message string) {
	o.persistStatus(context.Background(), sessionID, types.StatusError)
	o.emit(sessionID, types.NewErrorEvent(message))
}

func (o *Orchestrator) setStatus(ctx context.Context, sessionID string, status types.Status) {
	o.persistStatus(ctx, sessionID, status)
	o.emit(sessionID, types.NewStatusEvent(sessionID, status, string(status)))
}

func (o *Orchestrator) persistStatus(ctx context.Context, sessionID string, status types.Status) {
	_ = o.sessionRepo.UpdateStatus(ctx, o.deps.DB, sessionID, string(status), time.Now().Unix())
}

func (o *Orchestrator) emit(sessionID string, event *types.ServerEvent) {
	if o.deps.Emit != nil {
		o.deps.Emit(sessionID, event)
	}
}

func (o *Orchestrator) emitLog(sessionID string, step int, phase types.Phase, message string, err error) {
	o.emit(sessionID, types.NewLogEvent(step, phase, message, err))
}

// screenshotFunc persists the artifact row and pushes the screenshot event
// to every listener of sessionID's channel.
func (o *Orchestrator) screenshotFunc(sessionID string) agentloop.Screenshot {
	return func(path, observation string, regions []types.Region) {
		o.mu.Lock()
		session := o.sessions[sessionID]
		o.mu.Unlock()
		step := 0
		if session != nil {
			step = session.StepCounter
		}

		_ = o.artifactRepo.Insert(context.Background(), o.deps.DB, store.ArtifactRow{
			SessionID: sessionID, StepNumber: step, FilePath: path,
			FileType: store.FileTypeScreenshot, CreatedAt: time.Now().Unix(),
		})

		o.emit(sessionID, types.NewScreenshotEvent(sessionID, step, path, observation, regions))
	}
}

func (o *Orchestrator) loopEmitFunc(sessionID string, session *types.Session) agentloop.Emit {
	return func(phase types.Phase, message string, err error, action *types.Action) {
		step := session.NextStepNumber()
		o.emitLog(sessionID, step, phase, message, err)
		if o.deps.DB != nil {
			row := store.StepRow{
				SessionID: sessionID, StepNumber: step, Phase: string(phase),
				Observation: message, CreatedAt: time.Now().Unix(),
			}
			if action != nil {
				row.ActionType = string(action.Type)
				if data, marshalErr := json.Marshal(action); marshalErr == nil {
					row.ActionDataJSON = string(data)
				}
			}
			if err != nil {
				row.Error = err.Error()
			}
			_ = o.stepRepo.Insert(context.Background(), o.deps.DB, row)
		}
	}
}

// LastHistory returns the formatted short-term-history block for sessionID,
// used by callers assembling a fresh decider.Context outside the loop
// itself (kept here since it is the orchestrator that owns the DB handle).
func (o *Orchestrator) LastHistory(ctx context.Context, sessionID string) string {
	entries, err := history.Load(ctx, o.deps.DB, &o.stepRepo, sessionID)
	if err != nil {
		return ""
	}
	return history.FormatForPrompt(entries)
}
