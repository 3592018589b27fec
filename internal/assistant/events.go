package assistant

import (
	"sync"

	"github.com/solenne/iris/internal/domain"
)

// Event types published on the bus. The gateway forwards these verbatim to
// the connected front-end.
const (
	EventOpened         = "assistant.opened"
	EventClosed         = "assistant.closed"
	EventMessageAdded   = "message.added"
	EventMessageUpdated = "message.updated"
	EventStateChanged   = "state.changed"
	EventNavigate       = "navigate"
	EventSuggestions    = "suggestions"
	EventTurnError      = "turn.error"
	EventSessionReset   = "session.reset"
)

// Event is one assistant-side occurrence a client may want to render.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// OpenedPayload accompanies EventOpened.
type OpenedPayload struct {
	Session     domain.SessionInfo  `json:"session"`
	Messages    []domain.Message    `json:"messages,omitempty"`
	Suggestions []domain.Suggestion `json:"suggestions,omitempty"`
}

// MessagePayload accompanies message.added and message.updated. Partial is
// set while the typing reveal is still in progress.
type MessagePayload struct {
	Message domain.Message `json:"message"`
	Partial bool           `json:"partial,omitempty"`
}

// StatePayload accompanies state.changed.
type StatePayload struct {
	State string `json:"state"`
}

// NavigatePayload accompanies navigate events.
type NavigatePayload struct {
	Target string `json:"target"`
}

// SuggestionsPayload accompanies suggestions events.
type SuggestionsPayload struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
}

// ErrorPayload accompanies turn.error.
type ErrorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Bus fans events out to subscribers. Slow subscribers drop events rather
// than stalling the controller; the front-end reconciles from store state
// on reconnect anyway.
type Bus struct {
	mu   sync.Mutex
	subs []chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel receiving every subsequent event.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 64)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers an event to all subscribers without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
