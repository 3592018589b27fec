package domain

import "time"

// Role constants for messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a conversation. Messages carry stable IDs
// assigned at creation so streaming updates address a message by ID rather
// than by position in the list.
type Message struct {
	ID          string      `json:"id"`
	Role        string      `json:"role"`
	Content     string      `json:"content"`
	Timestamp   time.Time   `json:"timestamp"`
	PageContext string      `json:"pageContext,omitempty"`
	Suggestion  *Suggestion `json:"suggestion,omitempty"`
}

// HistoryEntry is a metadata-stripped view of a message, used as backend
// conversation context.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
