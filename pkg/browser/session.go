package browser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	playwrightOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	_, err := s.Page.Goto(url, playwrightOpts)
	s.CurrentURL = s.Page.URL()
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// URL returns the page's current URL.
func (s *Session) URL() string {
	return s.Page.URL()
}

// Title returns the page's current title, best-effort.
func (s *Session) Title() string {
	title, err := s.Page.Title()
	if err != nil {
		return ""
	}
	return title
}

// InnerText returns document.body.innerText — visible rendered text only,
// excluding hidden elements and script/style content, as opposed to
// TextContent which would include both. Truncated to maxLen characters.
func (s *Session) InnerText(maxLen int) (string, error) {
	s.UpdateLastUsed()

	result, err := s.Page.Evaluate(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", fmt.Errorf("innerText evaluation failed: %w", err)
	}
	text, _ := result.(string)
	if maxLen > 0 && len(text) > maxLen {
		text = text[:maxLen]
	}
	return text, nil
}

// ExtractCleanedText renders the page's HTML through the semantic cleaner
// (headings, links, structure preserved; scripts/styles/noise stripped),
// used for research notes so synthesized answers read better than a raw
// innerText dump would.
func (s *Session) ExtractCleanedText(maxLen int) (string, error) {
	s.UpdateLastUsed()

	raw, err := s.Page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	cleaned, err := cleanHTML(raw, maxLen)
	if err != nil {
		return "", fmt.Errorf("failed to clean page content: %w", err)
	}
	return cleaned.HTML, nil
}

// Evaluate runs arbitrary JS in the page and returns the raw result. Used
// by the scanner to enumerate/tag interactive elements and by the
// auto-scroll gate to sample scroll geometry.
func (s *Session) Evaluate(js string, arg interface{}) (interface{}, error) {
	s.UpdateLastUsed()
	result, err := s.Page.Evaluate(js, arg)
	if err != nil {
		return nil, fmt.Errorf("evaluate failed: %w", err)
	}
	return result, nil
}

// EvaluateInto runs js and unmarshals its JSON-serializable result into out.
func (s *Session) EvaluateInto(js string, arg interface{}, out interface{}) error {
	raw, err := s.Evaluate(js, arg)
	if err != nil {
		return err
	}
	// Playwright already deserializes JSON-safe values into Go primitives /
	// maps / slices; round-trip through encoding/json to land them in a
	// caller-provided struct.
	bytes, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluate result: %w", err)
	}
	if err := json.Unmarshal(bytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal evaluate result: %w", err)
	}
	return nil
}

// ScrollGeometry samples the page's current scroll position and extent.
func (s *Session) ScrollGeometry() (ScrollGeometry, error) {
	var geo ScrollGeometry
	err := s.EvaluateInto(`() => ({
		scrollY: window.scrollY,
		scrollHeight: document.documentElement.scrollHeight,
		viewportHeight: window.innerHeight,
	})`, nil, &geo)
	return geo, err
}

// ScrollBy scrolls the page vertically by deltaPx (positive = down).
func (s *Session) ScrollBy(deltaPx int) error {
	_, err := s.Evaluate(`(dy) => window.scrollBy(0, dy)`, deltaPx)
	return err
}

// Screenshot writes a PNG screenshot to path.
func (s *Session) Screenshot(path string) error {
	s.UpdateLastUsed()
	_, err := s.Page.Screenshot(playwright.PageScreenshotOptions{Path: playwright.String(path)})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

// Pages returns every open page (tab) in the session's browser context, in
// the order Playwright reports them.
func (s *Session) Pages() []playwright.Page {
	return s.Context.Pages()
}

// Rebind repoints the session's active page. Used after a click opens a new
// tab: the orchestrator snapshots Pages() before each iteration and rebinds
// to whichever is newest, abandoning the stale tab (spec §4.8).
func (s *Session) Rebind(p playwright.Page) {
	s.Page = p
	s.CurrentURL = p.URL()
	s.UpdateLastUsed()
}

// PressKey sends a keyboard key to the page, e.g. "Enter".
func (s *Session) PressKey(key string) error {
	s.UpdateLastUsed()
	if err := s.Page.Keyboard().Press(key); err != nil {
		return fmt.Errorf("key press failed: %w", err)
	}
	return nil
}

// WaitForLoadState waits for one of Playwright's navigation lifecycle
// states, bounded by timeoutMs.
func (s *Session) WaitForLoadState(state playwright.LoadState, timeoutMs float64) error {
	opts := playwright.PageWaitForLoadStateOptions{State: &state}
	if timeoutMs > 0 {
		opts.Timeout = &timeoutMs
	}
	if err := s.Page.WaitForLoadState(opts); err != nil {
		return fmt.Errorf("wait for load state failed: %w", err)
	}
	return nil
}
