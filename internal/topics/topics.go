// Package topics derives coarse conversation topic tags from user
// utterances via keyword matching.
package topics

import "strings"

// topicKeywords maps a topic tag to its trigger keywords. Matching is a
// case-insensitive substring check; a topic is included at most once no
// matter how many of its keywords fire. Order here fixes the order tags
// appear in when several match in one utterance.
var topicKeywords = []struct {
	tag      string
	keywords []string
}{
	{"projects", []string{"project", "portfolio", "built", "building", "showcase", "demo"}},
	{"research", []string{"research", "paper", "publication", "study", "thesis"}},
	{"skills", []string{"skill", "stack", "technolog", "language", "framework", "tool"}},
	{"experience", []string{"experience", "job", "career", "work history", "company", "employer"}},
	{"contact", []string{"contact", "email", "reach", "hire", "get in touch", "collaborate"}},
	{"background", []string{"background", "education", "degree", "studied", "story", "journey"}},
	{"iris", []string{"iris", "assistant", "voice", "how do you work", "are you an ai"}},
}

// Extract returns the topic tags matched by text, in table order, each at
// most once. It is pure and deterministic; empty or non-matching input
// yields nil.
func Extract(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var tags []string
	for _, entry := range topicKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}
	return tags
}
