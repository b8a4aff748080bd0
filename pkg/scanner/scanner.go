// Package scanner implements the interactive-element scan: the fix for the
// "phantom click" bug where an LLM decides to click element #7 from a stale
// screenshot, the DOM reflows, and #7 now means something else. Every
// element this package returns carries an identity attribute written into
// the live DOM in the same JS call that discovered it, so any action taken
// against that Region either lands on the same element or fails loudly
// because the attribute is gone.
package scanner

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/entrhq/pilot/pkg/browser"
	"github.com/entrhq/pilot/pkg/types"
)

// fallbackThreshold is the region count below which the cursor:pointer sweep
// runs in addition to the structural scan.
const fallbackThreshold = 5

// spaRetryWait is how long to wait for network-driven content before a
// single rescan on a zero-region single-page-app page.
const spaRetryWait = 3 * time.Second

// Scan runs one structural scan of the page, augments it with the
// cursor-pointer fallback when too few elements were found, and — unless
// quick is set — retries once after a brief settle if the page is a
// client-rendered app that produced nothing on the first pass.
func Scan(s *browser.Session, quick bool) ([]types.Region, error) {
	regions, err := runScript(s, scanScript)
	if err != nil {
		return nil, fmt.Errorf("structural scan failed: %w", err)
	}

	if ShouldRetryForSPA(len(regions), s.URL(), quick) {
		_ = s.WaitForLoadState("networkidle", 5000)
		time.Sleep(spaRetryWait)
		regions, err = runScript(s, scanScript)
		if err != nil {
			return nil, fmt.Errorf("structural rescan failed: %w", err)
		}
	}

	if len(regions) < fallbackThreshold {
		extra, err := runScript(s, cursorPointerFallbackScript)
		if err != nil {
			return nil, fmt.Errorf("cursor-pointer fallback scan failed: %w", err)
		}
		regions = append(regions, extra...)
	}

	return regions, nil
}

// ShouldRetryForSPA decides whether a zero-region scan warrants one settle-
// and-rescan pass. quick skips the retry entirely — used by the post-action
// rescan for the step screenshot, where a single extra render pass isn't
// worth the latency. A blank or
// empty URL means there's no real page to settle yet — retrying there just
// burns the networkidle wait and sleep for nothing, so it's excluded too.
func ShouldRetryForSPA(regionCount int, currentURL string, quick bool) bool {
	if currentURL == "" || currentURL == "about:blank" {
		return false
	}
	return regionCount == 0 && !quick
}

func runScript(s *browser.Session, script string) ([]types.Region, error) {
	raw, err := s.Evaluate(script, nil)
	if err != nil {
		return nil, err
	}
	text, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected scan result type %T", raw)
	}
	var regions []types.Region
	if err := json.Unmarshal([]byte(text), &regions); err != nil {
		return nil, fmt.Errorf("failed to decode scan result: %w", err)
	}
	return regions, nil
}

// Selector returns the attribute selector that addresses a previously
// scanned element by its identity. Never positional, never an index.
func Selector(identity string) string {
	return fmt.Sprintf("[%s=%q]", identityAttr, identity)
}

// FindByIdentity looks up a region by identity within a previously returned
// scan result, for callers that need to re-validate a Decision's target
// still exists before acting on it.
func FindByIdentity(regions []types.Region, identity string) (types.Region, bool) {
	for _, r := range regions {
		if r.Identity == identity {
			return r, true
		}
	}
	return types.Region{}, false
}
