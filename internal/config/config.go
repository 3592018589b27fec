// Package config loads and validates the Iris engine configuration.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with the engine defaults applied. The numeric
// values mirror the behavior observed in production: they are policy
// parameters, safe to tune per deployment.
func Defaults() Config {
	return Config{
		Chat: ChatConfig{
			Provider:          "sse",
			RequestsPerMinute: 10,
		},
		TTS: TTSConfig{
			Voice:    "alloy",
			MaxChars: 5000,
		},
		Voice: VoiceConfig{
			MaxBreathUnitLength: 160,
		},
		Session: SessionConfig{
			Store:                "sqlite",
			IdleMinutes:          30,
			MaxMessages:          50,
			MaxNavigationEntries: 20,
		},
		Assistant: AssistantConfig{
			HistoryLimit:           10,
			RevealBatchChars:       5,
			RevealTickMs:           15,
			ParagraphPauseMs:       1200,
			NavigateDelayMs:        1500,
			AutoNavigateConfidence: 90,
		},
		Gateway: GatewayConfig{
			Port: 18990,
			Bind: "loopback",
			Auth: GatewayAuth{Mode: "none"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// applyDefaults backfills zero-valued fields after a YAML load so a partial
// config file still yields a complete configuration.
func applyDefaults(cfg *Config) {
	def := Defaults()

	if cfg.Chat.Provider == "" {
		cfg.Chat.Provider = def.Chat.Provider
	}
	if cfg.Chat.RequestsPerMinute == 0 {
		cfg.Chat.RequestsPerMinute = def.Chat.RequestsPerMinute
	}
	if cfg.TTS.Voice == "" {
		cfg.TTS.Voice = def.TTS.Voice
	}
	if cfg.TTS.MaxChars == 0 {
		cfg.TTS.MaxChars = def.TTS.MaxChars
	}
	if cfg.Voice.MaxBreathUnitLength == 0 {
		cfg.Voice.MaxBreathUnitLength = def.Voice.MaxBreathUnitLength
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = def.Session.Store
	}
	if cfg.Session.IdleMinutes == 0 {
		cfg.Session.IdleMinutes = def.Session.IdleMinutes
	}
	if cfg.Session.MaxMessages == 0 {
		cfg.Session.MaxMessages = def.Session.MaxMessages
	}
	if cfg.Session.MaxNavigationEntries == 0 {
		cfg.Session.MaxNavigationEntries = def.Session.MaxNavigationEntries
	}
	if cfg.Assistant.HistoryLimit == 0 {
		cfg.Assistant.HistoryLimit = def.Assistant.HistoryLimit
	}
	if cfg.Assistant.RevealBatchChars == 0 {
		cfg.Assistant.RevealBatchChars = def.Assistant.RevealBatchChars
	}
	if cfg.Assistant.RevealTickMs == 0 {
		cfg.Assistant.RevealTickMs = def.Assistant.RevealTickMs
	}
	if cfg.Assistant.ParagraphPauseMs == 0 {
		cfg.Assistant.ParagraphPauseMs = def.Assistant.ParagraphPauseMs
	}
	if cfg.Assistant.NavigateDelayMs == 0 {
		cfg.Assistant.NavigateDelayMs = def.Assistant.NavigateDelayMs
	}
	if cfg.Assistant.AutoNavigateConfidence == 0 {
		cfg.Assistant.AutoNavigateConfidence = def.Assistant.AutoNavigateConfidence
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = def.Gateway.Port
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = def.Gateway.Bind
	}
	if cfg.Gateway.Auth.Mode == "" {
		cfg.Gateway.Auth.Mode = def.Gateway.Auth.Mode
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}
