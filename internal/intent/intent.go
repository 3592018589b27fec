// Package intent classifies navigation intent in user utterances and
// applies the consensual-navigation policy: suggest by default, auto-
// navigate only on explicit, high-confidence commands.
package intent

import (
	"strings"

	"github.com/solenne/iris/internal/domain"
)

// Confidence levels assigned by the classifier. Only explicit commands
// reach the auto-navigation band.
const (
	confidenceExplicit = 95
	confidenceStrong   = 60
	confidenceWeak     = 40

	// DefaultAutoThreshold is the confidence below which navigation is
	// never automatic. A policy parameter, not a hard invariant.
	DefaultAutoThreshold = 90
)

// commandPhrases are explicit navigation commands. Any of these combined
// with a page alias means the visitor asked to be taken somewhere.
var commandPhrases = []string{
	"take me to",
	"go to",
	"navigate to",
	"bring me to",
	"open the",
	"show me the",
}

// pageAliases maps page paths to trigger phrases. Strong aliases name the
// page outright; weak ones merely hint at it and stay below the suggestion
// band on their own.
var pageAliases = []struct {
	path   string
	strong []string
	weak   []string
}{
	{"/projects", []string{"projects", "portfolio", "project page"}, []string{"your work", "case studies"}},
	{"/resume", []string{"resume", "cv", "resume page"}, []string{"work history", "experience"}},
	{"/contact", []string{"contact", "contact page"}, []string{"get in touch", "email you", "hire"}},
	{"/about", []string{"about page", "about you"}, []string{"who are you", "your background"}},
	{"/", []string{"home page", "homepage", "main page"}, []string{"start over"}},
}

// pageLabels name each target for suggestion text.
var pageLabels = map[string]string{
	"/":         "home",
	"/projects": "the projects page",
	"/resume":   "the resume page",
	"/contact":  "the contact page",
	"/about":    "the about page",
}

// Detect classifies the utterance into a navigation intent. It is pure,
// never panics, and degrades to a zero-confidence intent on empty or
// unrecognized input.
func Detect(text string) domain.NavigationIntent {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return domain.NavigationIntent{}
	}

	hasCommand := false
	for _, phrase := range commandPhrases {
		if strings.Contains(lower, phrase) {
			hasCommand = true
			break
		}
	}

	best := domain.NavigationIntent{}
	for _, page := range pageAliases {
		score := 0
		for _, alias := range page.strong {
			if strings.Contains(lower, alias) {
				score = confidenceStrong
				break
			}
		}
		if score == 0 {
			for _, alias := range page.weak {
				if strings.Contains(lower, alias) {
					score = confidenceWeak
					break
				}
			}
		}
		if score == 0 {
			continue
		}
		explicit := false
		if hasCommand && score >= confidenceStrong {
			score = confidenceExplicit
			explicit = true
		}
		if score > best.Confidence {
			best = domain.NavigationIntent{
				Target:     page.path,
				Confidence: score,
				Explicit:   explicit,
			}
		}
	}

	if best.Target != "" && best.Confidence >= 50 {
		best.Suggestion = &domain.Suggestion{
			Kind:   domain.SuggestionNavigate,
			Text:   "Visit " + pageLabels[best.Target],
			Target: best.Target,
		}
	}
	return best
}

// ShouldNavigate applies the navigation policy: never navigate to the page
// the visitor is already on, and only navigate automatically when the
// intent is an explicit command at or above the threshold. Everything else
// is at most a clickable suggestion.
func ShouldNavigate(nav domain.NavigationIntent, currentPath string, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultAutoThreshold
	}
	if nav.Target == "" || nav.Target == currentPath {
		return false
	}
	return nav.Explicit && nav.Confidence >= threshold
}
