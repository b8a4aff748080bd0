package planner

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/entrhq/pilot/pkg/browser"
	"github.com/entrhq/pilot/pkg/llm"
	"github.com/entrhq/pilot/pkg/types"
)

const (
	captchaWaitCap    = 2 * time.Minute
	captchaPollEvery  = 5 * time.Second
	scoutSearchEngine = "https://duckduckgo.com/html/?q="
	maxScoutResults   = 3
)

// classifierSystemPrompt asks whether the task names an ambiguous, institution-
// specific service whose URL must be discovered rather than guessed.
const classifierSystemPrompt = `You classify a browser-automation task. Reply with a short web search query if the task mentions an ambiguous institution-specific service (a university portal, a company SSO, a specific but unnamed-URL service) whose real URL must be looked up rather than guessed. Otherwise reply with exactly the word NONE. Reply with only the query or NONE, nothing else.`

// LogFunc receives one scout progress line. The lines carry no session id;
// cmd/pilot-server writes them to the process log file, not to any
// session's client channel.
type LogFunc func(message string)

// Scout runs spec.md §4.2's preflight: classify, search, extract, handling
// CAPTCHA by waiting for the user to solve it in a visible browser.
type Scout struct {
	provider llm.Provider
	manager  *browser.SessionManager
	log      LogFunc
}

// NewScout creates a Scout. log may be nil to discard planning-phase logs.
func NewScout(provider llm.Provider, manager *browser.SessionManager, log LogFunc) *Scout {
	if log == nil {
		log = func(string) {}
	}
	return &Scout{provider: provider, manager: manager, log: log}
}

// VerifiedURL holds one search result the scout extracted.
type VerifiedURL struct {
	Title string
	URL   string
}

// Run classifies task and, if ambiguous, performs the live search. Returns
// nil when the task needs no verification, or on any failure
// during the search itself — per spec, the plan then proceeds without
// verified URLs rather than failing the whole planning call.
func (s *Scout) Run(ctx context.Context, task string) []VerifiedURL {
	query, ok := s.classify(ctx, task)
	if !ok {
		return nil
	}

	s.log("scout: searching for " + query)

	results, err := s.search(ctx, query)
	if err != nil {
		s.log("scout: search failed, proceeding without verified URLs: " + err.Error())
		return nil
	}
	return results
}

func (s *Scout) classify(ctx context.Context, task string) (string, bool) {
	messages := []*types.Message{
		types.NewSystemMessage(classifierSystemPrompt),
		types.NewUserMessage(task),
	}

	resp, err := s.provider.Complete(ctx, messages)
	if err != nil {
		return "", false
	}

	query := strings.TrimSpace(resp.Content)
	if query == "" || strings.EqualFold(query, "NONE") {
		return "", false
	}
	return query, true
}

var captchaSelectors = []string{"#captcha", ".g-recaptcha", "iframe[src*='captcha']", "#challenge-form"}
var captchaTextMarkers = []string{"unusual traffic", "verify you are human", "i'm not a robot"}

func (s *Scout) search(ctx context.Context, query string) ([]VerifiedURL, error) {
	aux, err := s.manager.LaunchAuxiliary("scout-" + query)
	if err != nil {
		return nil, err
	}
	defer s.manager.CloseSession(aux.Name)

	searchURL := scoutSearchEngine + urlEscape(query)
	if err := aux.Navigate(searchURL, browser.NavigateOptions{WaitUntil: "domcontentloaded"}); err != nil {
		return nil, err
	}

	if s.detectCaptcha(aux) {
		s.log("scout: CAPTCHA detected, waiting for manual solve")
		if !s.waitForCaptchaSolve(ctx, aux) {
			s.log("scout: CAPTCHA wait timed out, proceeding without verified URLs")
			return nil, nil
		}
	}

	return s.extractResults(aux)
}

func (s *Scout) detectCaptcha(session *browser.Session) bool {
	for _, sel := range captchaSelectors {
		var count int
		if err := session.EvaluateInto(
			`(sel) => document.querySelectorAll(sel).length`, sel, &count,
		); err == nil && count > 0 {
			return true
		}
	}

	text, err := session.InnerText(2000)
	if err != nil {
		return false
	}
	lower := strings.ToLower(text)
	for _, marker := range captchaTextMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// waitForCaptchaSolve polls until detectCaptcha no longer finds a CAPTCHA
// marker on the page, capped at captchaWaitCap.
func (s *Scout) waitForCaptchaSolve(ctx context.Context, session *browser.Session) bool {
	deadline := time.Now().Add(captchaWaitCap)
	for time.Now().Before(deadline) {
		if !s.detectCaptcha(session) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(captchaPollEvery):
		}
	}
	return false
}

func (s *Scout) extractResults(session *browser.Session) ([]VerifiedURL, error) {
	var raw []struct {
		Title string `json:"title"`
		Href  string `json:"href"`
	}
	err := session.EvaluateInto(`() => {
		const anchors = Array.from(document.querySelectorAll("a.result__a, a[href^='http']")).slice(0, 10);
		return anchors.map(a => ({ title: (a.textContent || "").trim(), href: a.href }));
	}`, nil, &raw)
	if err != nil {
		return nil, err
	}

	out := make([]VerifiedURL, 0, maxScoutResults)
	for _, r := range raw {
		if r.Href == "" {
			continue
		}
		out = append(out, VerifiedURL{Title: r.Title, URL: r.Href})
		if len(out) == maxScoutResults {
			break
		}
	}
	return out, nil
}

var urlEscapeReplacer = regexp.MustCompile(`\s+`)

func urlEscape(s string) string {
	return urlEscapeReplacer.ReplaceAllString(strings.TrimSpace(s), "+")
}
