package config

// Config is the root configuration for the Iris assistant engine.
type Config struct {
	Chat      ChatConfig      `yaml:"chat,omitempty"`
	TTS       TTSConfig       `yaml:"tts,omitempty"`
	Voice     VoiceConfig     `yaml:"voice,omitempty"`
	Session   SessionConfig   `yaml:"session,omitempty"`
	Assistant AssistantConfig `yaml:"assistant,omitempty"`
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// ChatConfig selects and configures the chat completion backend.
type ChatConfig struct {
	Provider string `yaml:"provider,omitempty"` // "sse" | "openai" | "mock"
	Endpoint string `yaml:"endpoint,omitempty"` // SSE provider endpoint URL
	APIKey   string `yaml:"apiKey,omitempty"`   // supports ${ENV_VAR} references
	Model    string `yaml:"model,omitempty"`    // model ID for the openai provider

	// RequestsPerMinute mirrors the backend's observed rate limit so the
	// gateway can reject before the backend does. 0 disables the guard.
	RequestsPerMinute int `yaml:"requestsPerMinute,omitempty"`
}

// TTSConfig configures the text-to-speech backend.
type TTSConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	APIKey   string `yaml:"apiKey,omitempty"`
	Voice    string `yaml:"voice,omitempty"`
	MaxChars int    `yaml:"maxChars,omitempty"` // server rejects longer input with 400
	Player   string `yaml:"player,omitempty"`   // external player command, e.g. "afplay"
}

// VoiceConfig holds voice-text-optimizer options.
type VoiceConfig struct {
	MaxBreathUnitLength    int   `yaml:"maxBreathUnitLength,omitempty"`
	AddThinkingPauses      *bool `yaml:"addThinkingPauses,omitempty"`
	ExpandAcronyms         *bool `yaml:"expandAcronyms,omitempty"`
	UseConversationalStyle *bool `yaml:"useConversationalStyle,omitempty"`
	EnableParagraphPauses  *bool `yaml:"enableParagraphPauses,omitempty"`
}

// SessionConfig controls session persistence and expiry.
type SessionConfig struct {
	Store                string `yaml:"store,omitempty"` // "sqlite" | "file" | "memory"
	IdleMinutes          int    `yaml:"idleMinutes,omitempty"`
	MaxMessages          int    `yaml:"maxMessages,omitempty"`
	MaxNavigationEntries int    `yaml:"maxNavigationEntries,omitempty"`
}

// AssistantConfig tunes the controller's timing and policy parameters.
// These are empirical policy knobs, not hard invariants.
type AssistantConfig struct {
	HistoryLimit           int `yaml:"historyLimit,omitempty"`           // messages sent as backend context
	RevealBatchChars       int `yaml:"revealBatchChars,omitempty"`       // typing-effect batch size
	RevealTickMs           int `yaml:"revealTickMs,omitempty"`           // typing-effect inter-batch delay
	ParagraphPauseMs       int `yaml:"paragraphPauseMs,omitempty"`       // pause between spoken paragraphs
	NavigateDelayMs        int `yaml:"navigateDelayMs,omitempty"`        // auto-navigate delay when sound is off
	AutoNavigateConfidence int `yaml:"autoNavigateConfidence,omitempty"` // threshold for automatic navigation
}

// GatewayConfig controls the WebSocket gateway serving the site front-end.
type GatewayConfig struct {
	Port int         `yaml:"port,omitempty"`
	Bind string      `yaml:"bind,omitempty"` // "loopback" | "lan"
	Auth GatewayAuth `yaml:"auth,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode  string `yaml:"mode,omitempty"` // "none" | "token"
	Token string `yaml:"token,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}
