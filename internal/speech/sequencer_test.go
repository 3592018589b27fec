package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solenne/iris/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(io.Discard, "silent")
}

// fakeSynth returns canned audio per segment and can be scripted to fail
// on a specific segment index.
type fakeSynth struct {
	mu      sync.Mutex
	calls   []string
	failOn  int // 1-based call number to fail on; 0 never fails
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.failOn > 0 && len(f.calls) == f.failOn {
		return nil, errors.New("synthesis unavailable")
	}
	return []byte(fmt.Sprintf("audio:%s", text)), nil
}

// fakePlayer records played segments and can fail on a given segment.
type fakePlayer struct {
	mu     sync.Mutex
	played []string
	failOn int
}

func (f *fakePlayer) Play(ctx context.Context, audio []byte, onStart func()) error {
	f.mu.Lock()
	f.played = append(f.played, string(audio))
	n := len(f.played)
	f.mu.Unlock()
	if onStart != nil {
		onStart()
	}
	if f.failOn > 0 && n == f.failOn {
		return errors.New("playback device error")
	}
	return nil
}

func newTestSequencer(synth Synthesizer, player Player) *Sequencer {
	return NewSequencer(synth, player, time.Millisecond, testLogger())
}

func TestSpeak_SequentialSegments(t *testing.T) {
	synth := &fakeSynth{}
	player := &fakePlayer{}
	seq := newTestSequencer(synth, player)

	err := seq.Speak(context.Background(), "First paragraph.\n\nSecond paragraph.\n\nThird paragraph.", "alloy")
	require.NoError(t, err)

	assert.Equal(t, []string{"First paragraph.", "Second paragraph.", "Third paragraph."}, synth.calls)
	assert.Equal(t, []string{
		"audio:First paragraph.",
		"audio:Second paragraph.",
		"audio:Third paragraph.",
	}, player.played)
	assert.Equal(t, StateIdle, seq.State())
}

func TestSpeak_SynthesisFailureMidSequence(t *testing.T) {
	// The second paragraph's synthesis fails: paragraph 1 must have played
	// fully, paragraph 3 must never play, and the state ends idle.
	synth := &fakeSynth{failOn: 2}
	player := &fakePlayer{}
	seq := newTestSequencer(synth, player)

	err := seq.Speak(context.Background(), "One.\n\nTwo.\n\nThree.", "alloy")
	require.Error(t, err)

	assert.Equal(t, []string{"audio:One."}, player.played)
	assert.Len(t, synth.calls, 2)
	assert.Equal(t, StateIdle, seq.State())
}

func TestSpeak_PlaybackFailureAbortsRemainder(t *testing.T) {
	synth := &fakeSynth{}
	player := &fakePlayer{failOn: 1}
	seq := newTestSequencer(synth, player)

	err := seq.Speak(context.Background(), "One.\n\nTwo.", "alloy")
	require.Error(t, err)

	assert.Len(t, player.played, 1)
	assert.Len(t, synth.calls, 1, "no synthesis after an aborted segment")
	assert.Equal(t, StateIdle, seq.State())
}

func TestSpeak_StateTransitions(t *testing.T) {
	synth := &fakeSynth{}
	player := &fakePlayer{}
	seq := newTestSequencer(synth, player)
	states := seq.StateChanges()

	require.NoError(t, seq.Speak(context.Background(), "Only paragraph.", "alloy"))

	var got []State
	for len(states) > 0 {
		got = append(got, <-states)
	}
	assert.Equal(t, []State{StateProcessing, StateSpeaking, StateProcessing, StateIdle}, got)
}

func TestSpeak_EmptyText(t *testing.T) {
	synth := &fakeSynth{}
	player := &fakePlayer{}
	seq := newTestSequencer(synth, player)

	require.NoError(t, seq.Speak(context.Background(), "  \n\n ", "alloy"))
	assert.Empty(t, synth.calls)
	assert.Equal(t, StateIdle, seq.State())
}

func TestSpeak_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	synth := &fakeSynth{}
	player := &fakePlayer{}
	seq := NewSequencer(synth, player, time.Hour, testLogger())

	err := seq.Speak(ctx, "One.\n\nTwo.", "alloy")
	require.Error(t, err)
	assert.Equal(t, StateIdle, seq.State())
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("a\n\nb\n\n\n\nc\n\n")
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Nil(t, SplitParagraphs(""))
}
