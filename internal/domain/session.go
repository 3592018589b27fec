// Package domain defines the core types shared across the assistant engine.
package domain

import "time"

// Session limits. These are the engine defaults; config can override them.
const (
	MaxSessionMessages   = 50
	MaxNavigationEntries = 20
	SessionIdleTimeout   = 30 * time.Minute
)

// Session is the client-local record of one visitor's conversation and
// navigation activity with the assistant.
type Session struct {
	ID                string      `json:"id"`
	StartTime         time.Time   `json:"startTime"`
	LastActivity      time.Time   `json:"lastActivity"`
	Messages          []Message   `json:"messages,omitempty"`
	TopicsDiscussed   []string    `json:"topicsDiscussed,omitempty"`
	NavigationHistory []string    `json:"navigationHistory,omitempty"`
	UserPreferences   Preferences `json:"userPreferences"`
}

// Expired reports whether the session has been idle longer than the timeout.
// Expiry is evaluated lazily at read time; there is no active timer.
func (s *Session) Expired(timeout time.Duration, now time.Time) bool {
	if timeout <= 0 {
		timeout = SessionIdleTimeout
	}
	return now.Sub(s.LastActivity) > timeout
}

// CurrentPage returns the most recently recorded page path, or "/" if the
// session has no navigation history yet.
func (s *Session) CurrentPage() string {
	if len(s.NavigationHistory) == 0 {
		return "/"
	}
	return s.NavigationHistory[len(s.NavigationHistory)-1]
}

// SessionInfo is a read projection of a Session for display. It is derived,
// never persisted.
type SessionInfo struct {
	Duration     string   `json:"duration"`
	MessageCount int      `json:"messageCount"`
	TopicCount   int      `json:"topicCount"`
	HasHistory   bool     `json:"hasHistory"`
	CurrentPage  string   `json:"currentPage"`
	Topics       []string `json:"topics,omitempty"`
}
