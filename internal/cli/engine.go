package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/solenne/iris/internal/assistant"
	"github.com/solenne/iris/internal/chat"
	"github.com/solenne/iris/internal/config"
	"github.com/solenne/iris/internal/speech"
	"github.com/solenne/iris/internal/store"
	"github.com/solenne/iris/internal/topics"
	"github.com/solenne/iris/internal/voice"
)

// engine bundles the wired-up assistant for a command's lifetime.
type engine struct {
	cfg     config.Config
	ctrl    *assistant.Controller
	store   *store.SessionStore
	cleanup func()
}

// buildEngine loads config and assembles storage, chat backend, speech, and
// the controller. Both serve and chat go through here so the two front-ends
// stay behaviorally identical.
func buildEngine() (*engine, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating data directories: %w", err)
	}

	cleanup := func() {}
	var storage store.Storage
	switch cfg.Session.Store {
	case "memory":
		storage = store.NewMemoryStorage()
	case "file":
		storage, err = store.NewFileStorage(filepath.Join(paths.Data, "state"))
		if err != nil {
			return nil, fmt.Errorf("opening file storage: %w", err)
		}
	default: // "sqlite"
		db, err := store.Open(filepath.Join(paths.Data, "iris.db"), log)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		cleanup = func() { db.Close() }
		storage = store.NewSQLiteStorage(db)
	}

	sessions := store.NewSessionStore(storage, topics.Extract, store.Options{
		IdleTimeout:          time.Duration(cfg.Session.IdleMinutes) * time.Minute,
		MaxMessages:          cfg.Session.MaxMessages,
		MaxNavigationEntries: cfg.Session.MaxNavigationEntries,
	}, log)

	var client chat.Client
	switch cfg.Chat.Provider {
	case "openai":
		client = chat.NewOpenAIClient(cfg.Chat.APIKey, cfg.Chat.Model, log)
	case "mock":
		client = &chat.MockClient{}
	default: // "sse"
		if cfg.Chat.Endpoint == "" {
			cleanup()
			return nil, fmt.Errorf("chat.endpoint is required for the sse provider")
		}
		client = chat.NewSSEClient(cfg.Chat.Endpoint, cfg.Chat.APIKey, log)
	}
	log.Info().Str("provider", client.Name()).Msg("chat backend ready")

	var speaker assistant.Speaker
	if cfg.TTS.Endpoint != "" {
		synth := speech.NewHTTPSynthesizer(cfg.TTS.Endpoint, cfg.TTS.APIKey, cfg.TTS.MaxChars, log)
		var player speech.Player = speech.NopPlayer{}
		if cfg.TTS.Player != "" {
			player = speech.NewCommandPlayer(cfg.TTS.Player)
		}
		pause := time.Duration(cfg.Assistant.ParagraphPauseMs) * time.Millisecond
		speaker = speech.NewSequencer(synth, player, pause, log)
	} else {
		log.Info().Msg("no tts endpoint configured, answers will be text-only")
	}

	voiceOpts := voice.DefaultOptions()
	if cfg.Voice.MaxBreathUnitLength > 0 {
		voiceOpts.MaxBreathUnitLength = cfg.Voice.MaxBreathUnitLength
	}
	if cfg.Voice.AddThinkingPauses != nil {
		voiceOpts.AddThinkingPauses = *cfg.Voice.AddThinkingPauses
	}
	if cfg.Voice.ExpandAcronyms != nil {
		voiceOpts.ExpandAcronyms = *cfg.Voice.ExpandAcronyms
	}
	if cfg.Voice.UseConversationalStyle != nil {
		voiceOpts.UseConversationalStyle = *cfg.Voice.UseConversationalStyle
	}
	if cfg.Voice.EnableParagraphPauses != nil {
		voiceOpts.EnableParagraphPauses = *cfg.Voice.EnableParagraphPauses
	}

	ctrl := assistant.NewController(sessions, client, speaker, nil, nil, assistant.Options{
		HistoryLimit:           cfg.Assistant.HistoryLimit,
		RevealBatchChars:       cfg.Assistant.RevealBatchChars,
		RevealTick:             time.Duration(cfg.Assistant.RevealTickMs) * time.Millisecond,
		NavigateDelay:          time.Duration(cfg.Assistant.NavigateDelayMs) * time.Millisecond,
		AutoNavigateConfidence: cfg.Assistant.AutoNavigateConfidence,
		Voice:                  voiceOpts,
	}, log)

	return &engine{cfg: cfg, ctrl: ctrl, store: sessions, cleanup: cleanup}, nil
}
