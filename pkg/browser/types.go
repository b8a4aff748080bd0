package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session wraps the Browser+Context+Page triple driving one orchestrator
// session's task. Unlike a general-purpose browser-tool session, exactly
// one Page is "active" at a time; Rebind repoints it when a click opens a
// new tab (the zombie-tab fix, spec §4.8).
type Session struct {
	// Name is the orchestrator session id this browser session belongs to.
	Name string

	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	Headless bool

	CreatedAt  time.Time
	LastUsedAt time.Time
	CurrentURL string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	Headless bool
	Viewport *Viewport
	Timeout  float64
}

// Viewport is the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil: "load", "domcontentloaded", "networkidle".
	WaitUntil string
	Timeout   float64
}

// ScrollGeometry is the scroll/viewport measurement the auto-scroll gate
// samples on every iteration.
type ScrollGeometry struct {
	ScrollY        float64
	ScrollHeight   float64
	ViewportHeight float64
}

const (
	DefaultTimeout        = 30000.0
	DefaultMaxTextLength  = 10000
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 32
	DefaultIdleTimeout    = 1800 // 30 minutes, in seconds
)
