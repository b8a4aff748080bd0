package scanner

import (
	"fmt"

	"github.com/entrhq/pilot/pkg/browser"
)

// Click acts on the element carrying the given identity attribute. If the
// element is gone by the time this runs — the DOM reflowed since the scan
// that produced it — Playwright's locator resolution fails and that failure
// propagates as an ordinary action error; the caller never falls back to a
// positional click.
func Click(s *browser.Session, identity string) error {
	loc := s.Page.Locator(Selector(identity))
	if err := loc.Click(); err != nil {
		return fmt.Errorf("click on %s failed: %w", identity, err)
	}
	return nil
}

// Fill sets the value of the input/textarea carrying the given identity.
func Fill(s *browser.Session, identity, value string) error {
	loc := s.Page.Locator(Selector(identity))
	if err := loc.Fill(value); err != nil {
		return fmt.Errorf("fill on %s failed: %w", identity, err)
	}
	return nil
}

// ScrollIntoView brings the identified element into the viewport, used
// before a key press on a region, ahead of Focus.
func ScrollIntoView(s *browser.Session, identity string) error {
	loc := s.Page.Locator(Selector(identity))
	if err := loc.ScrollIntoViewIfNeeded(); err != nil {
		return fmt.Errorf("scroll into view on %s failed: %w", identity, err)
	}
	return nil
}

// Focus gives the identified element keyboard focus, used before a
// page-level key press so the keystroke lands on the intended element
// rather than whatever the page last focused on its own.
func Focus(s *browser.Session, identity string) error {
	loc := s.Page.Locator(Selector(identity))
	if err := loc.Focus(); err != nil {
		return fmt.Errorf("focus on %s failed: %w", identity, err)
	}
	return nil
}
