// Package agentloop implements the per-objective agent loop (spec.md §4.7):
// observe, auto-recover, auto-scroll, decide, act, verify, repeated until
// the objective completes, pauses, or hits the step cap.
package agentloop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/pilot/pkg/browser"
	"github.com/entrhq/pilot/pkg/decider"
	"github.com/entrhq/pilot/pkg/guardrail"
	"github.com/entrhq/pilot/pkg/scanner"
	"github.com/entrhq/pilot/pkg/types"
	"github.com/entrhq/pilot/pkg/verifier"
	"github.com/entrhq/pilot/pkg/visibility"
	"github.com/playwright-community/playwright-go"
)

const (
	defaultStepCap      = 50
	autoScrollCap       = 5
	scrollStabilize     = 400 * time.Millisecond
	defaultAutoScrollPx = 600
)

// searchSubmitKeywords name a region label likely to be a search/submit
// button, used by the auto-recovery gate's second injection.
var searchSubmitKeywords = []string{"search", "submit", "go"}

// ObjectiveContext is everything the orchestrator has prepared for one
// objective invocation of the loop (spec.md §4.8's "objective prompt").
type ObjectiveContext struct {
	Task              string
	Strategy          string
	Step              types.Step
	PlanSummary       string
	ResearchNotesTail string
	HistoryText       string
}

// Emit streams one phase log line to the client channel. action is the
// action the line pertains to, if any — nil for observational/status lines
// not tied to a single executed action — so a caller persisting step history
// can record what was actually done, not just a message string.
type Emit func(phase types.Phase, message string, err error, action *types.Action)

// Screenshot is called after every ACT+VERIFY pair with the freshly
// rendered screenshot's path and the regions found on the rescan that
// followed it, per spec.md §5 ("screenshots are always emitted after an ACT
// and after the re-scan that follows").
type Screenshot func(path string, observation string, regions []types.Region)

// Deps bundles the loop's collaborators.
type Deps struct {
	SessionID    string
	Session      *browser.Session
	Decider      *decider.Decider
	Visibility   *visibility.Checker
	Gate         *guardrail.Gate
	Emit         Emit
	OnScreenshot Screenshot // nil disables screenshot capture (e.g. in tests)
	ArtifactsDir string
	StepCap      int // 0 uses defaultStepCap
}

// Result is the loop's exit shape, per spec.md §4.7.
type Result struct {
	Completed     bool
	Reason        string
	PendingAction *types.Action
	PauseKind     types.PauseKind
}

// Loop drives one objective. State is reset per objective unless
// resetStepCount is false, which preserves counters across a resume.
type Loop struct {
	deps Deps

	stepCount         int
	scrollCount       int
	bottomReached     bool
	contentVisible    bool
	lastScrollY       float64
	lastScrollHeight  float64
	autoRecoveryTries int
	lastAction        *types.Action
	lastOutcome       *types.Outcome
	lastURL           string
	resumeAction      *types.Action
}

// SetResumeAction injects an action that was proposed, paused on, and then
// approved by the user — it executes once, on the next Run call, ahead of
// OBSERVE/DECIDE, without another guardrail check (the user just approved
// this exact action).
func (l *Loop) SetResumeAction(action types.Action) {
	l.resumeAction = &action
}

// New creates a Loop for one objective invocation.
func New(deps Deps) *Loop {
	if deps.StepCap == 0 {
		deps.StepCap = defaultStepCap
	}
	return &Loop{deps: deps}
}

// Run drives the objective to completion, pause, or the step cap.
func (l *Loop) Run(ctx context.Context, octx ObjectiveContext, resetStepCount bool) Result {
	if resetStepCount {
		l.stepCount = 0
		l.scrollCount = 0
		l.bottomReached = false
		l.contentVisible = false
		l.autoRecoveryTries = 0
		l.lastAction = nil
		l.lastOutcome = nil
	}

	for {
		l.stepCount++
		if l.stepCount > l.deps.StepCap {
			return Result{Completed: false, Reason: "max steps"}
		}

		l.detectURLChange()

		if l.resumeAction != nil {
			action := *l.resumeAction
			l.resumeAction = nil
			l.executeAndVerify(action)
			continue
		}

		regions, text, err := l.observe()
		if err != nil {
			l.deps.Emit(types.PhaseObserve, "observe failed: "+err.Error(), err, nil)
		}

		if action, ok := l.autoRecoveryGate(regions); ok {
			if action.Type == types.ActionAskUser {
				return Result{Completed: false, Reason: "auto-recovery exhausted", PendingAction: &action, PauseKind: types.PauseAskUser}
			}
			l.executeAndVerify(action)
			continue
		}

		if proceed := l.autoScrollGate(ctx, octx, regions, text); !proceed {
			continue
		}

		decision := l.deps.Decider.Decide(ctx, l.deps.SessionID, l.buildDeciderContext(octx, regions, text))
		l.deps.Emit(types.PhaseDecide, fmt.Sprintf("decided %s: %s", decision.Action.Type, decision.Reasoning), nil, &decision.Action)

		if decision.Action.IsTerminal() {
			switch decision.Action.Type {
			case types.ActionDone:
				return Result{Completed: true, Reason: decision.Action.Reason}
			case types.ActionAskUser:
				return Result{Completed: false, Reason: "manual step needed", PendingAction: &decision.Action, PauseKind: types.PauseAskUser}
			case types.ActionConfirm:
				return Result{Completed: false, Reason: "confirmation needed", PendingAction: &decision.Action, PauseKind: types.PauseConfirm}
			}
		}

		guardResult := l.deps.Gate.Check(decision.Action, regions)
		if !guardResult.Allowed {
			if guardResult.RequiresConfirmation {
				return Result{Completed: false, Reason: guardResult.Reason, PendingAction: &decision.Action, PauseKind: types.PauseConfirm}
			}
			continue
		}

		l.executeAndVerify(decision.Action)
	}
}

func (l *Loop) detectURLChange() {
	current := l.deps.Session.URL()
	if l.lastURL != "" && current != l.lastURL {
		l.scrollCount = 0
		l.bottomReached = false
		l.contentVisible = false
		l.lastScrollY = 0
		l.lastScrollHeight = 0
		l.autoRecoveryTries = 0
	}
	l.lastURL = current
}

func (l *Loop) observe() ([]types.Region, string, error) {
	regions, err := scanner.Scan(l.deps.Session, false)
	if err != nil {
		return nil, "", err
	}
	text, _ := l.deps.Session.InnerText(4000) // best-effort; a read failure just yields an empty sample
	l.deps.Emit(types.PhaseObserve, fmt.Sprintf("found %d regions at %s (%d chars visible text)", len(regions), l.deps.Session.URL(), len(text)), nil, nil)
	return regions, text, nil
}

// autoRecoveryGate implements spec.md §4.7 step 3: if the last action was a
// fill with stateChanged=false, inject Enter -> submit-click -> ASK_USER in
// order, stopping as soon as one changes state.
func (l *Loop) autoRecoveryGate(regions []types.Region) (types.Action, bool) {
	if l.lastAction == nil || l.lastOutcome == nil {
		return types.Action{}, false
	}
	if !l.lastAction.IsFill() || l.lastOutcome.StateChanged() {
		return types.Action{}, false
	}

	l.autoRecoveryTries++
	switch l.autoRecoveryTries {
	case 1:
		return types.Action{Type: types.ActionKeyPress, Key: "Enter", RegionID: l.lastAction.RegionID, Description: "auto-recovery: Enter on filled field"}, true
	case 2:
		for _, r := range regions {
			label := strings.ToLower(r.Label)
			for _, kw := range searchSubmitKeywords {
				if strings.Contains(label, kw) {
					return types.Action{Type: types.ActionDOMClick, RegionID: r.Identity, Description: "auto-recovery: submit button click"}, true
				}
			}
		}
		return types.Action{Type: types.ActionKeyPress, Key: "Enter", Description: "auto-recovery: Enter at page level"}, true
	default:
		return types.Action{Type: types.ActionAskUser, Message: "the fill didn't change the page; please continue manually"}, true
	}
}

// autoScrollGate implements spec.md §4.7 step 4. Returns true when the
// caller should fall through to DECIDE in the same iteration (content is
// visible, the bottom was reached, the scroll cap was hit, or the scroll
// geometry could not be read), and false after it auto-scrolled, so the
// caller re-iterates and observes the page again.
func (l *Loop) autoScrollGate(ctx context.Context, octx ObjectiveContext, regions []types.Region, text string) bool {
	if l.contentVisible || l.bottomReached || l.scrollCount >= autoScrollCap {
		return true
	}

	labels := make([]string, 0, len(regions))
	for _, r := range regions {
		labels = append(labels, r.Label)
	}

	if l.deps.Visibility.Visible(ctx, octx.Step.Title+": "+octx.Step.Description, text, labels) {
		l.contentVisible = true
		return true
	}

	geo, err := l.deps.Session.ScrollGeometry()
	if err != nil {
		l.bottomReached = true
		return true
	}

	scrollable := geo.ScrollHeight > geo.ViewportHeight+10
	unchanged := geo.ScrollY == l.lastScrollY && geo.ScrollHeight == l.lastScrollHeight
	nearBottom := geo.ScrollY+geo.ViewportHeight >= geo.ScrollHeight-5

	if (unchanged && scrollable) || nearBottom {
		l.bottomReached = true
		return true
	}

	before := verifier.Snapshot(l.deps.Session)
	_ = l.deps.Session.ScrollBy(defaultAutoScrollPx)
	time.Sleep(scrollStabilize)
	newGeo, _ := l.deps.Session.ScrollGeometry()
	l.lastScrollY, l.lastScrollHeight = newGeo.ScrollY, newGeo.ScrollHeight
	l.scrollCount++

	outcome, msg := verifier.Verify(l.deps.Session, before)
	l.lastOutcome = &outcome
	l.deps.Emit(types.PhaseObserve, "auto-scroll: "+msg, nil, nil)

	return false
}

func (l *Loop) buildDeciderContext(octx ObjectiveContext, regions []types.Region, text string) decider.Context {
	scrollStatus := fmt.Sprintf("auto-scroll ran %d times, visible=%v, bottomReached=%v", l.scrollCount, l.contentVisible, l.bottomReached)

	contextPrompt := fmt.Sprintf(
		"Task: %s\nStrategy: %s\nCurrent step: %s - %s\nTarget URL: %s\nPlan: %s\nResearch notes: %s",
		octx.Task, octx.Strategy, octx.Step.Title, octx.Step.Description, octx.Step.TargetURL, octx.PlanSummary, octx.ResearchNotesTail,
	)

	return decider.Context{
		ContextPrompt: contextPrompt,
		CurrentURL:    l.deps.Session.URL(),
		History:       octx.HistoryText,
		VisibleText:   text,
		Regions:       regions,
		LastAction:    l.lastAction,
		LastOutcome:   l.lastOutcome,
		ScrollStatus:  scrollStatus,
		StepNumber:    l.stepCount,
	}
}

// executeAndVerify implements spec.md §4.7 steps 7-8: capture pre-state,
// execute via the scanner/toolkit, then verify in a try/catch equivalent —
// Verify never returns an error, matching the spec's "navigation may have
// destroyed the context, treat that as proceed" guidance.
func (l *Loop) executeAndVerify(action types.Action) {
	before := verifier.Snapshot(l.deps.Session)

	if err := l.act(action); err != nil {
		l.deps.Emit(types.PhaseAct, "action failed: "+err.Error(), err, &action)
		outcome := types.Outcome{URLBefore: before.URL, URLAfter: before.URL, TitleBefore: before.Title, TitleAfter: before.Title, TextBefore: before.Text, TextAfter: before.Text}
		l.lastAction = &action
		l.lastOutcome = &outcome
		return
	}

	outcome, msg := verifier.Verify(l.deps.Session, before)
	l.deps.Emit(types.PhaseVerify, msg, nil, &action)

	l.lastAction = &action
	l.lastOutcome = &outcome

	// Rebind to the newest tab in case the action opened one — the
	// zombie-tab fix (spec §4.8) applies within an objective too, not just
	// between objectives.
	if pages := l.deps.Session.Pages(); len(pages) > 0 {
		newest := pages[len(pages)-1]
		if newest.URL() != l.deps.Session.URL() {
			l.deps.Session.Rebind(newest)
		}
	}

	l.captureScreenshot(msg)
}

// captureScreenshot implements the re-scan-then-screenshot pass that
// follows every executed action.
func (l *Loop) captureScreenshot(observation string) {
	if l.deps.OnScreenshot == nil {
		return
	}
	regions, err := scanner.Scan(l.deps.Session, true)
	if err != nil {
		l.deps.Emit(types.PhaseObserve, "post-action rescan failed: "+err.Error(), err, nil)
		regions = nil
	}

	dir := l.deps.ArtifactsDir
	if dir == "" {
		dir = "artifacts"
	}
	path := fmt.Sprintf("%s/%s/step-%04d.png", dir, l.deps.SessionID, l.stepCount)
	if err := l.deps.Session.Screenshot(path); err != nil {
		l.deps.Emit(types.PhaseObserve, "screenshot failed: "+err.Error(), err, nil)
		return
	}

	l.deps.OnScreenshot(path, observation, regions)
}

func (l *Loop) act(action types.Action) error {
	l.deps.Emit(types.PhaseAct, "executing "+string(action.Type), nil, &action)

	switch action.Type {
	case types.ActionVisionClick, types.ActionDOMClick:
		if action.RegionID != "" {
			return scanner.Click(l.deps.Session, action.RegionID)
		}
		return fmt.Errorf("click action with no region id and no (role,name)/selector resolution implemented")
	case types.ActionVisionFill, types.ActionDOMFill:
		return scanner.Fill(l.deps.Session, action.RegionID, action.Value)
	case types.ActionKeyPress:
		if action.RegionID != "" {
			if err := scanner.ScrollIntoView(l.deps.Session, action.RegionID); err != nil {
				return err
			}
			if err := scanner.Focus(l.deps.Session, action.RegionID); err != nil {
				return err
			}
		}
		return l.deps.Session.PressKey(action.Key)
	case types.ActionScroll:
		delta := action.ScrollAmount()
		if action.Direction == types.ScrollUp {
			delta = -delta
		}
		return l.deps.Session.ScrollBy(delta)
	case types.ActionWait:
		if action.Until != "" {
			return l.deps.Session.WaitForLoadState(waitStateFor(action.Until), float64(3000))
		}
		time.Sleep(time.Duration(action.DurationMs) * time.Millisecond)
		return nil
	default:
		return fmt.Errorf("unsupported non-terminal action type %s", action.Type)
	}
}

// CurrentPageText returns the page's HTML run through the semantic cleaner
// (Session.ExtractCleanedText, up to 2000 characters of markup), used
// by the orchestrator to capture a research note once an objective
// completes.
func (l *Loop) CurrentPageText() (string, error) {
	return l.deps.Session.ExtractCleanedText(2000)
}

// CurrentURL returns the browser's current URL, used by the orchestrator to
// drive the fast-forward pass after an objective completes.
func (l *Loop) CurrentURL() string {
	return l.deps.Session.URL()
}

func waitStateFor(until types.WaitUntilState) playwright.LoadState {
	switch until {
	case types.WaitUntilDOMContentLoaded:
		return *playwright.LoadStateDomcontentloaded
	case types.WaitUntilNetworkIdle:
		return *playwright.LoadStateNetworkidle
	default:
		return *playwright.LoadStateLoad
	}
}
