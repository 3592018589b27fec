// Package speech turns optimized text into sequential audio playback. It
// owns the speaking/idle state machine and is the only component allowed
// to touch the playback primitive.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/solenne/iris/internal/logging"
)

// ErrTextTooLong means the segment exceeds the TTS backend's input limit.
var ErrTextTooLong = errors.New("tts input exceeds backend limit")

// Synthesizer produces audio for a text segment.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// HTTPSynthesizer calls the hosted text-to-speech endpoint: a POST of
// {text, voice} answered with a binary audio payload, or a JSON error.
type HTTPSynthesizer struct {
	endpoint string
	apiKey   string
	maxChars int
	client   *http.Client
	log      *logging.Logger
}

// NewHTTPSynthesizer creates a synthesizer for the given endpoint.
// maxChars mirrors the backend's observed input limit; 0 defaults to 5000.
func NewHTTPSynthesizer(endpoint, apiKey string, maxChars int, log *logging.Logger) *HTTPSynthesizer {
	if maxChars <= 0 {
		maxChars = 5000
	}
	return &HTTPSynthesizer{
		endpoint: endpoint,
		apiKey:   apiKey,
		maxChars: maxChars,
		client:   &http.Client{Timeout: 60 * time.Second},
		log:      log.Sub("speech.tts"),
	}
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type ttsError struct {
	Error string `json:"error"`
}

// Synthesize requests audio for one segment. Over-long input is rejected
// client-side before the backend gets a chance to 400 on it.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if len(text) > s.maxChars {
		return nil, fmt.Errorf("%w: %d > %d chars", ErrTextTooLong, len(text), s.maxChars)
	}

	payload, err := json.Marshal(ttsRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("marshaling tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var te ttsError
		if json.Unmarshal(body, &te) == nil && te.Error != "" {
			return nil, fmt.Errorf("tts backend error (%d): %s", resp.StatusCode, te.Error)
		}
		return nil, fmt.Errorf("tts backend error (%d)", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tts response: %w", err)
	}
	return audio, nil
}
