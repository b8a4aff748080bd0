package types

// ActionType is the tag of the Action union.
type ActionType string

const (
	ActionVisionClick ActionType = "VISION_CLICK"
	ActionDOMClick    ActionType = "DOM_CLICK"
	ActionVisionFill  ActionType = "VISION_FILL"
	ActionDOMFill     ActionType = "DOM_FILL"
	ActionKeyPress    ActionType = "KEY_PRESS"
	ActionScroll      ActionType = "SCROLL"
	ActionWait        ActionType = "WAIT"
	ActionAskUser     ActionType = "ASK_USER"
	ActionConfirm     ActionType = "CONFIRM"
	ActionDone        ActionType = "DONE"
)

// ScrollDirection constrains SCROLL's direction field.
type ScrollDirection string

const (
	ScrollUp   ScrollDirection = "up"
	ScrollDown ScrollDirection = "down"
)

// WaitUntilState constrains WAIT's until field to Playwright lifecycle events.
type WaitUntilState string

const (
	WaitUntilLoad             WaitUntilState = "load"
	WaitUntilDOMContentLoaded WaitUntilState = "domcontentloaded"
	WaitUntilNetworkIdle      WaitUntilState = "networkidle"
)

const defaultScrollAmountPx = 600

// Action is a tagged union of every operation the agent loop may execute.
// Only the fields relevant to Type are populated; see spec §3 for the
// payload of each tag.
type Action struct {
	Type ActionType

	// VISION_CLICK / DOM_CLICK / VISION_FILL / DOM_FILL / KEY_PRESS target a
	// region by identity. DOM_CLICK may instead target by (Role, Name) or a
	// raw Selector when no scan produced a matching region.
	RegionID string
	Role     Role
	Name     string
	Selector string

	// VISION_FILL / DOM_FILL / KEY_PRESS payload.
	Value string
	Key   string

	// SCROLL payload.
	Direction ScrollDirection
	AmountPx  int

	// WAIT payload. Exactly one of DurationMs or Until is set.
	DurationMs int
	Until      WaitUntilState

	// ASK_USER / CONFIRM payload.
	Message  string
	ActionID string

	// DONE payload.
	Reason string

	// Description is a short human-readable gloss of the action, present on
	// most tags, used only for logs.
	Description string
}

// ScrollAmount returns AmountPx, defaulting to 600px when unset.
func (a *Action) ScrollAmount() int {
	if a.AmountPx <= 0 {
		return defaultScrollAmountPx
	}
	return a.AmountPx
}

// IsTerminal reports whether this action ends the current objective's
// agent-loop iteration (DONE, ASK_USER, CONFIRM).
func (a *Action) IsTerminal() bool {
	switch a.Type {
	case ActionDone, ActionAskUser, ActionConfirm:
		return true
	default:
		return false
	}
}

// TargetsRegion reports whether the action addresses a region by identity.
func (a *Action) TargetsRegion() bool {
	switch a.Type {
	case ActionVisionClick, ActionVisionFill:
		return true
	case ActionDOMClick, ActionDOMFill, ActionKeyPress:
		return a.RegionID != ""
	default:
		return false
	}
}

// IsFill reports whether the action is one of the two fill tags.
func (a *Action) IsFill() bool {
	return a.Type == ActionVisionFill || a.Type == ActionDOMFill
}
