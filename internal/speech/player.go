package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Player is the single shared playback primitive. Only the Sequencer may
// drive it. Play blocks until the segment ends or errors; onStart fires
// when playback actually begins, so state transitions follow real playback
// events rather than manual flag-setting.
type Player interface {
	Play(ctx context.Context, audio []byte, onStart func()) error
}

// CommandPlayer plays audio by invoking an external player binary (e.g.
// afplay, mpv, ffplay) on a temporary file. The file is removed as soon as
// the segment finishes or errors, so no audio data leaks across turns.
type CommandPlayer struct {
	command string
}

// NewCommandPlayer creates a player using the given command.
func NewCommandPlayer(command string) *CommandPlayer {
	return &CommandPlayer{command: command}
}

func (p *CommandPlayer) Play(ctx context.Context, audio []byte, onStart func()) error {
	f, err := os.CreateTemp("", "iris-audio-*.mp3")
	if err != nil {
		return fmt.Errorf("creating audio temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(audio); err != nil {
		f.Close()
		return fmt.Errorf("writing audio temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing audio temp file: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.command, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting player: %w", err)
	}
	if onStart != nil {
		onStart()
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("player exited: %w", err)
	}
	return nil
}

// NopPlayer discards audio instantly. Used when no player command is
// configured, so the sequencer's state machine still runs end to end.
type NopPlayer struct{}

func (NopPlayer) Play(ctx context.Context, audio []byte, onStart func()) error {
	if onStart != nil {
		onStart()
	}
	return ctx.Err()
}
