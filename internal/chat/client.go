// Package chat defines the chat completion client interface and the
// backend providers that implement it. The backend is an opaque hosted
// service; only its request/response contract is modeled here.
package chat

import (
	"context"
	"errors"
)

// RoleSystem supplements the domain roles for the system prompt turn.
const RoleSystem = "system"

// ErrRateLimited signals an HTTP 429 from the backend. Rate-limit failures
// are surfaced to the visitor and never retried automatically.
var ErrRateLimited = errors.New("chat backend rate limited")

// SessionContext is the session metadata sent alongside the conversation
// so the backend can ground its answers.
type SessionContext struct {
	TopicsDiscussed   []string `json:"topicsDiscussed,omitempty"`
	CurrentPage       string   `json:"currentPage,omitempty"`
	NavigationHistory []string `json:"navigationHistory,omitempty"`
	SessionDuration   string   `json:"sessionDuration,omitempty"`
}

// Message is one conversation turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the input to a Stream call.
type Request struct {
	Messages []Message       `json:"messages"`
	Context  *SessionContext `json:"context,omitempty"`
}

// StreamEvent is a chunk from a streaming completion.
type StreamEvent struct {
	Type      string `json:"type"`                // "delta", "done", "error"
	Content   string `json:"content,omitempty"`   // text delta, or full text on "done"
	Error     string `json:"error,omitempty"`     // error message (type="error")
	Retryable bool   `json:"retryable,omitempty"` // rate limit: the visitor may resend
}

// Client is the interface all chat backend providers implement.
type Client interface {
	// Stream sends a request and returns a channel of streaming events.
	// The channel is closed after a "done" or "error" event.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)

	// Name returns the provider name (e.g., "sse", "openai").
	Name() string
}
