package speech

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/solenne/iris/internal/logging"
)

// State is the sequencer's speaking state.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"

	// Reserved states, not driven by this subsystem.
	StateListening State = "listening"
	StateReasoning State = "reasoning"
)

// DefaultParagraphPause is the wait between spoken paragraphs.
const DefaultParagraphPause = 1200 * time.Millisecond

// Sequencer plays a multi-paragraph text as a strict sequence of audio
// segments: synthesize a paragraph, play it to completion, pause, repeat.
// Segments never overlap. A failed segment aborts the remainder of the
// turn and lands the sequencer back in idle; the failure is reported to
// the caller but is not a fatal condition.
type Sequencer struct {
	synth Synthesizer
	player Player
	pause time.Duration
	log   *logging.Logger

	active sync.Mutex // serializes Speak calls; the player is a shared resource

	mu    sync.Mutex
	state State
	subs  []chan State
}

// NewSequencer creates a sequencer. pause <= 0 uses the default.
func NewSequencer(synth Synthesizer, player Player, pause time.Duration, log *logging.Logger) *Sequencer {
	if pause <= 0 {
		pause = DefaultParagraphPause
	}
	return &Sequencer{
		synth:  synth,
		player: player,
		pause:  pause,
		log:    log.Sub("speech"),
		state:  StateIdle,
	}
}

// State returns the current speaking state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StateChanges returns a channel receiving every state transition. Slow
// receivers drop transitions rather than blocking playback.
func (s *Sequencer) StateChanges() <-chan State {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan State, 16)
	s.subs = append(s.subs, ch)
	return ch
}

// Speak plays text paragraph by paragraph. It blocks until the whole text
// has been spoken, an error aborts the remainder, or ctx is canceled. The
// state is idle again by the time it returns, success or not.
func (s *Sequencer) Speak(ctx context.Context, text, voice string) error {
	paragraphs := SplitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	s.active.Lock()
	defer s.active.Unlock()

	s.setState(StateProcessing)
	defer s.setState(StateIdle)

	for i, p := range paragraphs {
		audio, err := s.synth.Synthesize(ctx, p, voice)
		if err != nil {
			s.log.Warn().Err(err).Int("segment", i).Msg("synthesis failed, aborting remaining segments")
			return fmt.Errorf("synthesizing segment %d: %w", i, err)
		}

		// The onStart callback is the single adapter between playback
		// events and the state machine.
		err = s.player.Play(ctx, audio, func() { s.setState(StateSpeaking) })
		if err != nil {
			s.log.Warn().Err(err).Int("segment", i).Msg("playback failed, aborting remaining segments")
			return fmt.Errorf("playing segment %d: %w", i, err)
		}
		s.setState(StateProcessing)

		// Pause between paragraphs, but not after the final one.
		if i < len(paragraphs)-1 {
			select {
			case <-time.After(s.pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (s *Sequencer) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == st {
		return
	}
	s.state = st
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
		}
	}
}

var reParagraphSplit = regexp.MustCompile(`\n{2,}`)

// SplitParagraphs splits text on paragraph boundaries, dropping empties.
func SplitParagraphs(text string) []string {
	var out []string
	for _, p := range reParagraphSplit.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
