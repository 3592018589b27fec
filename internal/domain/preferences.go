package domain

// DefaultVoice is the voice identifier used when the visitor has not picked one.
const DefaultVoice = "alloy"

// Preferences are long-lived visitor settings with a lifecycle independent
// from the session.
type Preferences struct {
	SoundEnabled   bool   `json:"soundEnabled"`
	Voice          string `json:"voice"`
	AutoPlay       bool   `json:"autoPlay"`
	ShowTranscript bool   `json:"showTranscript"`
}

// DefaultPreferences returns the preference defaults used on first read.
func DefaultPreferences() Preferences {
	return Preferences{
		SoundEnabled:   true,
		Voice:          DefaultVoice,
		AutoPlay:       true,
		ShowTranscript: true,
	}
}

// Merge applies a partial update, overwriting only the supplied fields.
func (p Preferences) Merge(update PreferencesUpdate) Preferences {
	if update.SoundEnabled != nil {
		p.SoundEnabled = *update.SoundEnabled
	}
	if update.Voice != nil {
		p.Voice = *update.Voice
	}
	if update.AutoPlay != nil {
		p.AutoPlay = *update.AutoPlay
	}
	if update.ShowTranscript != nil {
		p.ShowTranscript = *update.ShowTranscript
	}
	return p
}

// PreferencesUpdate is a partial Preferences; nil fields are left untouched.
type PreferencesUpdate struct {
	SoundEnabled   *bool   `json:"soundEnabled,omitempty"`
	Voice          *string `json:"voice,omitempty"`
	AutoPlay       *bool   `json:"autoPlay,omitempty"`
	ShowTranscript *bool   `json:"showTranscript,omitempty"`
}
