// Package guardrail vets proposed actions before they reach the browser
// toolkit: sensitive-labeled actions pause for human confirmation, actions
// carrying a literal secret never execute at all, and navigation targets are
// checked against an allowed-domain list. See spec.md §4.5.
package guardrail

import (
	"strings"

	"github.com/entrhq/pilot/pkg/scanner"
	"github.com/entrhq/pilot/pkg/types"
)

// defaultSensitiveKeywords are checked against a target region's label,
// case-insensitively, when the operator hasn't configured its own list.
var defaultSensitiveKeywords = []string{"submit", "enroll", "pay", "send", "delete", "remove"}

// defaultSecretMarkers flag fill values that must never reach the LLM or the
// page — these are denied outright, with no confirmation path.
var defaultSecretMarkers = []string{"SECRET.", "PASSWORD", "API_KEY"}

// Result is the Guardrail Gate's verdict on one proposed action.
type Result struct {
	Allowed              bool
	Reason               string
	RequiresConfirmation bool
}

// Gate holds the configured keyword/marker lists and allowed domains.
type Gate struct {
	SensitiveKeywords []string
	SecretMarkers     []string
	AllowedDomains    []string
}

// NewGate builds a Gate, defaulting keyword/marker lists when the caller
// passes nil (i.e. no operator override configured).
func NewGate(sensitiveKeywords, secretMarkers, allowedDomains []string) *Gate {
	if len(sensitiveKeywords) == 0 {
		sensitiveKeywords = defaultSensitiveKeywords
	}
	if len(secretMarkers) == 0 {
		secretMarkers = defaultSecretMarkers
	}
	return &Gate{
		SensitiveKeywords: sensitiveKeywords,
		SecretMarkers:     secretMarkers,
		AllowedDomains:    allowedDomains,
	}
}

// Check vets action against regions, the scan result it was decided against.
func (g *Gate) Check(action types.Action, regions []types.Region) Result {
	if action.IsFill() {
		for _, marker := range g.SecretMarkers {
			if strings.Contains(action.Value, marker) {
				return Result{Allowed: false, Reason: "fill value contains a secret marker"}
			}
		}
	}

	if action.TargetsRegion() {
		if region, ok := scanner.FindByIdentity(regions, action.RegionID); ok {
			label := strings.ToLower(region.Label)
			for _, keyword := range g.SensitiveKeywords {
				if strings.Contains(label, strings.ToLower(keyword)) {
					return Result{
						Allowed:              false,
						Reason:               "target label matches sensitive keyword " + keyword,
						RequiresConfirmation: true,
					}
				}
			}
		}
	}

	return Result{Allowed: true}
}

// AllowedURL reports whether host is covered by the configured allowed-
// domain list — an exact match, or host ending with "."+domain (subdomain
// match). An empty allowlist permits everything, matching an operator who
// hasn't opted into domain restriction.
func (g *Gate) AllowedURL(host string) bool {
	if len(g.AllowedDomains) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, domain := range g.AllowedDomains {
		domain = strings.ToLower(domain)
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
