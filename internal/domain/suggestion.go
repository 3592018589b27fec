package domain

// SuggestionKind discriminates the suggestion variants. An explicit tag
// avoids the structural-overlap ambiguity of duck-typed suggestion shapes.
type SuggestionKind string

const (
	SuggestionChat     SuggestionKind = "chat"
	SuggestionNavigate SuggestionKind = "navigate"
	SuggestionInfo     SuggestionKind = "info"
)

// Suggestion is a contextual follow-up affordance shown to the visitor.
// Ephemeral, recomputed per turn, never persisted.
type Suggestion struct {
	Kind   SuggestionKind `json:"kind"`
	Text   string         `json:"text"`
	Target string         `json:"target,omitempty"`
	Prompt string         `json:"prompt,omitempty"`
}

// NavigationIntent is a classifier's belief that an utterance implies a
// desire to move to a specific page.
type NavigationIntent struct {
	Target     string      `json:"target,omitempty"`
	Confidence int         `json:"confidence"` // 0–100
	Explicit   bool        `json:"explicit"`   // matched an explicit command pattern
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}
