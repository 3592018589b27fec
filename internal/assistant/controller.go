// Package assistant runs the conversation loop: it owns the turn lifecycle
// from a visitor utterance through streaming, persistence, the typing
// reveal, speech, and navigation.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/solenne/iris/internal/chat"
	"github.com/solenne/iris/internal/domain"
	"github.com/solenne/iris/internal/intent"
	"github.com/solenne/iris/internal/logging"
	"github.com/solenne/iris/internal/store"
	"github.com/solenne/iris/internal/suggest"
	"github.com/solenne/iris/internal/voice"
)

// Speaker plays a voice-optimized text aloud, blocking until finished.
type Speaker interface {
	Speak(ctx context.Context, text, voice string) error
}

// Navigator moves the front-end to a new page path.
type Navigator interface {
	Push(path string) error
}

// Canned replies when a turn fails. Rate limits get their own phrasing so
// the visitor knows retrying will help.
const (
	apologyGeneric     = "Sorry, something went wrong on my end. Mind asking that again?"
	apologyRateLimited = "I'm getting a lot of questions right now. Give it a few seconds and try again."
)

// Options tune the controller's timing and policy knobs.
type Options struct {
	HistoryLimit           int           // turns sent to the backend
	RevealBatchChars       int           // typing-effect batch size
	RevealTick             time.Duration // typing-effect inter-batch delay
	NavigateDelay          time.Duration // auto-navigate delay when sound is off
	AutoNavigateConfidence int
	Voice                  voice.Options
}

func (o Options) withDefaults() Options {
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 10
	}
	if o.RevealBatchChars <= 0 {
		o.RevealBatchChars = 5
	}
	if o.RevealTick <= 0 {
		o.RevealTick = 15 * time.Millisecond
	}
	if o.NavigateDelay <= 0 {
		o.NavigateDelay = 1500 * time.Millisecond
	}
	if o.AutoNavigateConfidence <= 0 {
		o.AutoNavigateConfidence = intent.DefaultAutoThreshold
	}
	if o.Voice == (voice.Options{}) {
		o.Voice = voice.DefaultOptions()
	}
	return o
}

// Controller drives one assistant instance. Send serializes turns: a second
// Send blocks until the first finishes, matching the one-turn-at-a-time
// conversation model.
type Controller struct {
	store   *store.SessionStore
	client  chat.Client
	speaker Speaker
	nav     Navigator
	bus     *Bus
	opts    Options
	log     *logging.Logger

	turn sync.Mutex // serializes Send

	mu    sync.Mutex
	open  bool
	state string
}

// NewController wires the conversation loop together. speaker and nav may
// be nil; speech and navigation are then skipped.
func NewController(s *store.SessionStore, client chat.Client, speaker Speaker, nav Navigator, bus *Bus, opts Options, log *logging.Logger) *Controller {
	if bus == nil {
		bus = NewBus()
	}
	return &Controller{
		store:   s,
		client:  client,
		speaker: speaker,
		nav:     nav,
		bus:     bus,
		opts:    opts.withDefaults(),
		log:     log.Sub("assistant"),
		state:   "idle",
	}
}

// Bus returns the controller's event bus.
func (c *Controller) Bus() *Bus { return c.bus }

// State returns the controller's current state: idle, processing, speaking.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open marks the assistant panel open and publishes the current session
// snapshot plus suggestions so the front-end can render immediately.
func (c *Controller) Open() {
	c.mu.Lock()
	c.open = true
	c.mu.Unlock()

	info := c.store.SessionInfo()
	sess := c.store.GetSession()
	c.bus.Publish(Event{Type: EventOpened, Payload: OpenedPayload{
		Session:     info,
		Messages:    sess.Messages,
		Suggestions: suggest.Select(info, info.CurrentPage),
	}})
}

// Close marks the panel closed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	c.bus.Publish(Event{Type: EventClosed})
}

// IsOpen reports whether the panel is open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// VisitPage records a page visit in the navigation history.
func (c *Controller) VisitPage(path string) {
	c.store.AddToNavigationHistory(path)
}

// SessionInfo returns the current session projection.
func (c *Controller) SessionInfo() domain.SessionInfo {
	return c.store.SessionInfo()
}

// Suggestions returns the current suggestion set for a page.
func (c *Controller) Suggestions(pathname string) []domain.Suggestion {
	return suggest.Select(c.store.SessionInfo(), pathname)
}

// ClearConversation empties the transcript, keeping the session alive.
func (c *Controller) ClearConversation() {
	c.store.ClearMessages()
	info := c.store.SessionInfo()
	c.bus.Publish(Event{Type: EventSessionReset, Payload: OpenedPayload{
		Session:     info,
		Suggestions: suggest.Select(info, info.CurrentPage),
	}})
}

// StartNewSession discards the session entirely and starts fresh.
func (c *Controller) StartNewSession() domain.SessionInfo {
	c.store.ResetSession()
	info := c.store.SessionInfo()
	c.bus.Publish(Event{Type: EventSessionReset, Payload: OpenedPayload{
		Session:     info,
		Suggestions: suggest.Select(info, info.CurrentPage),
	}})
	return info
}

// Preferences returns the current visitor preferences.
func (c *Controller) Preferences() domain.Preferences {
	return c.store.Preferences()
}

// UpdatePreferences applies a partial preferences update.
func (c *Controller) UpdatePreferences(update domain.PreferencesUpdate) domain.Preferences {
	return c.store.SavePreferences(update)
}

// ToggleSound flips the sound preference and returns the new value.
func (c *Controller) ToggleSound() bool {
	enabled := !c.store.Preferences().SoundEnabled
	c.store.SavePreferences(domain.PreferencesUpdate{SoundEnabled: &enabled})
	return enabled
}

// Send runs one full conversation turn and blocks until the answer has been
// revealed, spoken (when sound is on), and any navigation has fired. The
// returned error reflects the backend exchange; reveal and speech problems
// are absorbed into the transcript.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.turn.Lock()
	defer c.turn.Unlock()

	c.setState("processing")
	defer c.setState("idle")

	page := c.store.SessionInfo().CurrentPage

	// The user turn and the assistant placeholder land together so the
	// transcript never shows a question without a pending answer slot.
	sess := c.store.AddMessage(domain.RoleUser, text, page)
	userMsg := sess.Messages[len(sess.Messages)-1]
	sess = c.store.AddMessage(domain.RoleAssistant, "", page)
	placeholder := sess.Messages[len(sess.Messages)-1]

	c.bus.Publish(Event{Type: EventMessageAdded, Payload: MessagePayload{Message: userMsg}})
	c.bus.Publish(Event{Type: EventMessageAdded, Payload: MessagePayload{Message: placeholder, Partial: true}})

	// Classify before the network round trip; the classification must not
	// depend on the answer.
	nav := intent.Detect(text)

	req := buildRequest(c.store, c.opts.HistoryLimit)
	events, err := c.client.Stream(ctx, req)
	if err != nil {
		return c.failTurn(placeholder.ID, page, err.Error(), false)
	}

	var full strings.Builder
	for ev := range events {
		switch ev.Type {
		case "delta":
			full.WriteString(ev.Content)
		case "done":
			if ev.Content != "" {
				full.Reset()
				full.WriteString(ev.Content)
			}
		case "error":
			return c.failTurn(placeholder.ID, page, ev.Error, ev.Retryable)
		}
	}

	answer := strings.TrimSpace(full.String())
	if answer == "" {
		return c.failTurn(placeholder.ID, page, "empty response from backend", false)
	}
	c.store.UpdateMessage(placeholder.ID, answer)

	// A sub-threshold navigation hit becomes a clickable suggestion on the
	// answer itself.
	autoNavigate := intent.ShouldNavigate(nav, page, c.opts.AutoNavigateConfidence)
	if !autoNavigate && nav.Suggestion != nil && nav.Target != page {
		c.store.AttachSuggestion(placeholder.ID, nav.Suggestion)
	}

	c.revealAndSpeak(ctx, placeholder.ID, answer)

	if autoNavigate {
		c.navigate(ctx, nav.Target)
	}

	info := c.store.SessionInfo()
	c.bus.Publish(Event{Type: EventSuggestions, Payload: SuggestionsPayload{
		Suggestions: suggest.Select(info, info.CurrentPage),
	}})
	return nil
}

// revealAndSpeak runs the typing reveal and speech concurrently and waits
// for both. Speech failures degrade to text-only; the transcript is already
// committed.
func (c *Controller) revealAndSpeak(ctx context.Context, id, answer string) {
	prefs := c.store.Preferences()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.reveal(ctx, id, answer)
	}()

	if c.speaker != nil && prefs.SoundEnabled && prefs.AutoPlay {
		spoken := voice.Optimize(answer, c.opts.Voice)
		c.setState("speaking")
		if err := c.speaker.Speak(ctx, spoken, prefs.Voice); err != nil {
			c.log.Warn().Err(err).Msg("speech failed, answer stays text-only")
		}
		c.setState("processing")
	}
	wg.Wait()
}

// reveal publishes the answer in growing slices at a fixed cadence, the
// typing effect. The final update is always the complete text.
func (c *Controller) reveal(ctx context.Context, id, content string) {
	runes := []rune(content)
	msg := func(n int) domain.Message {
		return domain.Message{ID: id, Role: domain.RoleAssistant, Content: string(runes[:n])}
	}

	final := Event{Type: EventMessageUpdated, Payload: MessagePayload{Message: msg(len(runes))}}
	for n := c.opts.RevealBatchChars; n < len(runes); n += c.opts.RevealBatchChars {
		c.bus.Publish(Event{Type: EventMessageUpdated, Payload: MessagePayload{Message: msg(n), Partial: true}})
		select {
		case <-time.After(c.opts.RevealTick):
		case <-ctx.Done():
			// Canceled mid-reveal: skip straight to the full text.
			c.bus.Publish(final)
			return
		}
	}
	c.bus.Publish(final)
}

// navigate fires an auto-navigation. With sound on, speech has already
// finished by the time this runs; with sound off, a short delay gives the
// visitor a beat to read the answer first.
func (c *Controller) navigate(ctx context.Context, target string) {
	if !c.store.Preferences().SoundEnabled {
		select {
		case <-time.After(c.opts.NavigateDelay):
		case <-ctx.Done():
			return
		}
	}

	c.store.AddToNavigationHistory(target)
	c.bus.Publish(Event{Type: EventNavigate, Payload: NavigatePayload{Target: target}})
	if c.nav != nil {
		if err := c.nav.Push(target); err != nil {
			c.log.Warn().Err(err).Str("target", target).Msg("navigation failed")
		}
	}
}

// failTurn retracts the placeholder, posts an apology in its place, and
// reports the failure on the bus.
func (c *Controller) failTurn(placeholderID, page, reason string, retryable bool) error {
	c.log.Warn().Str("reason", reason).Bool("retryable", retryable).Msg("turn failed")

	c.store.RemoveMessage(placeholderID)
	apology := apologyGeneric
	if retryable {
		apology = apologyRateLimited
	}
	sess := c.store.AddMessage(domain.RoleAssistant, apology, page)
	msg := sess.Messages[len(sess.Messages)-1]

	c.bus.Publish(Event{Type: EventTurnError, Payload: ErrorPayload{Message: reason, Retryable: retryable}})
	c.bus.Publish(Event{Type: EventMessageAdded, Payload: MessagePayload{Message: msg}})
	return fmt.Errorf("chat turn failed: %s", reason)
}

func (c *Controller) setState(state string) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()
	c.bus.Publish(Event{Type: EventStateChanged, Payload: StatePayload{State: state}})
}
