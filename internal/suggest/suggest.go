// Package suggest produces contextual follow-up prompts for the assistant
// panel based on the current page, conversation length, and accumulated
// topics.
package suggest

import (
	"strings"

	"github.com/solenne/iris/internal/domain"
)

// Selection gates. Onboarding wins on the very first turn; topic-based
// suggestions take over once the conversation has progressed and enough
// topics have accumulated; page-based fills the gap in between.
const (
	minMessagesForTopics = 4
	minTopicsForTopics   = 2
	maxTopicSuggestions  = 3
)

// onboarding is the fixed set shown before the visitor has said anything.
var onboarding = []domain.Suggestion{
	{Kind: domain.SuggestionChat, Text: "What can you do?", Prompt: "What can you do?"},
	{Kind: domain.SuggestionChat, Text: "Tell me about the projects", Prompt: "Tell me about the projects on this site"},
	{Kind: domain.SuggestionNavigate, Text: "Show me the resume", Target: "/resume"},
}

// pageSuggestions is the fixed per-page table. Unknown paths fall back to
// the home entry.
var pageSuggestions = map[string][]domain.Suggestion{
	"/": {
		{Kind: domain.SuggestionChat, Text: "What should I look at first?", Prompt: "What should I look at first?"},
		{Kind: domain.SuggestionNavigate, Text: "Browse the projects", Target: "/projects"},
		{Kind: domain.SuggestionChat, Text: "What's the story behind this site?", Prompt: "What's the story behind this site?"},
	},
	"/projects": {
		{Kind: domain.SuggestionChat, Text: "Which project is the most technically interesting?", Prompt: "Which project is the most technically interesting?"},
		{Kind: domain.SuggestionChat, Text: "What was the hardest thing to build?", Prompt: "What was the hardest thing to build?"},
		{Kind: domain.SuggestionNavigate, Text: "See the resume", Target: "/resume"},
	},
	"/resume": {
		{Kind: domain.SuggestionChat, Text: "Summarize the work experience", Prompt: "Summarize the work experience"},
		{Kind: domain.SuggestionChat, Text: "What are the strongest skills?", Prompt: "What are the strongest skills?"},
		{Kind: domain.SuggestionNavigate, Text: "Get in touch", Target: "/contact"},
	},
	"/contact": {
		{Kind: domain.SuggestionInfo, Text: "Responses usually arrive within a day or two"},
		{Kind: domain.SuggestionChat, Text: "What kind of work is most interesting?", Prompt: "What kind of work are you most interested in?"},
	},
	"/about": {
		{Kind: domain.SuggestionChat, Text: "What's the background story?", Prompt: "What's the background story?"},
		{Kind: domain.SuggestionNavigate, Text: "Browse the projects", Target: "/projects"},
	},
}

// projectDetail is the special case for dynamic /projects/<slug> paths.
var projectDetail = []domain.Suggestion{
	{Kind: domain.SuggestionChat, Text: "How was this project built?", Prompt: "How was this project built?"},
	{Kind: domain.SuggestionChat, Text: "What problems did it solve?", Prompt: "What problems did this project solve?"},
	{Kind: domain.SuggestionNavigate, Text: "Back to all projects", Target: "/projects"},
}

// topicFollowUps pairs each topic with one canned follow-up, in fixed
// priority order.
var topicFollowUps = []struct {
	topic      string
	suggestion domain.Suggestion
}{
	{"projects", domain.Suggestion{Kind: domain.SuggestionChat, Text: "Dig into a specific project", Prompt: "Tell me more about one project in depth"}},
	{"research", domain.Suggestion{Kind: domain.SuggestionChat, Text: "What research came out of this?", Prompt: "What research came out of this work?"}},
	{"skills", domain.Suggestion{Kind: domain.SuggestionChat, Text: "How were these skills learned?", Prompt: "How were these skills learned?"}},
	{"experience", domain.Suggestion{Kind: domain.SuggestionNavigate, Text: "See the full resume", Target: "/resume"}},
	{"contact", domain.Suggestion{Kind: domain.SuggestionNavigate, Text: "Go to the contact page", Target: "/contact"}},
	{"background", domain.Suggestion{Kind: domain.SuggestionChat, Text: "What's the origin story?", Prompt: "What's the origin story?"}},
	{"iris", domain.Suggestion{Kind: domain.SuggestionChat, Text: "How does this assistant work?", Prompt: "How do you work under the hood?"}},
}

var genericFollowUp = domain.Suggestion{
	Kind:   domain.SuggestionChat,
	Text:   "What else is worth asking about?",
	Prompt: "What else is worth asking about?",
}

// Onboarding returns the fixed first-turn suggestion set.
func Onboarding() []domain.Suggestion {
	return append([]domain.Suggestion(nil), onboarding...)
}

// ForPage returns the contextual suggestions for a page, falling back to
// the home table for unknown paths.
func ForPage(pathname string) []domain.Suggestion {
	if s, ok := pageSuggestions[pathname]; ok {
		return append([]domain.Suggestion(nil), s...)
	}
	if strings.HasPrefix(pathname, "/projects/") {
		return append([]domain.Suggestion(nil), projectDetail...)
	}
	return append([]domain.Suggestion(nil), pageSuggestions["/"]...)
}

// ForTopics returns one follow-up per discussed topic in priority order,
// capped, with a generic fallback when nothing matches.
func ForTopics(topics []string) []domain.Suggestion {
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		seen[t] = true
	}

	var out []domain.Suggestion
	for _, entry := range topicFollowUps {
		if seen[entry.topic] {
			out = append(out, entry.suggestion)
			if len(out) == maxTopicSuggestions {
				break
			}
		}
	}
	if len(out) == 0 {
		out = append(out, genericFollowUp)
	}
	return out
}

// Select applies the precedence policy: onboarding on the very first turn,
// topic-based once the conversation has progressed with enough topics,
// page-based otherwise.
func Select(info domain.SessionInfo, pathname string) []domain.Suggestion {
	if info.MessageCount <= 1 {
		return Onboarding()
	}
	if info.MessageCount >= minMessagesForTopics && info.TopicCount >= minTopicsForTopics {
		return ForTopics(info.Topics)
	}
	return ForPage(pathname)
}
