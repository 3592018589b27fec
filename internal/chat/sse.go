package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/solenne/iris/internal/logging"
)

// SSEClient talks to the chat backend over its server-sent-events-style
// contract: each response line is either `data: {"content": "<fragment>"}`
// or the terminal `data: [DONE]`.
type SSEClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *logging.Logger
}

// NewSSEClient creates a client for the given endpoint.
func NewSSEClient(endpoint, apiKey string, log *logging.Logger) *SSEClient {
	return &SSEClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 120 * time.Second},
		log:      log.Sub("chat.sse"),
	}
}

// Name returns the provider name.
func (c *SSEClient) Name() string { return "sse" }

// Stream sends the request and returns a channel of streaming events.
func (c *SSEClient) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	events := make(chan StreamEvent)
	go c.streamRequest(ctx, events, payload)
	return events, nil
}

func (c *SSEClient) streamRequest(ctx context.Context, events chan<- StreamEvent, payload []byte) {
	defer close(events)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		events <- StreamEvent{Type: "error", Error: fmt.Sprintf("request creation failed: %v", err)}
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		events <- StreamEvent{Type: "error", Error: fmt.Sprintf("request failed: %v", err)}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		events <- StreamEvent{Type: "error", Error: ErrRateLimited.Error(), Retryable: true}
		return
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		events <- StreamEvent{Type: "error", Error: fmt.Sprintf("backend error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))}
		return
	}

	var full strings.Builder
	err = decodeStream(resp.Body, func(delta string) {
		full.WriteString(delta)
		events <- StreamEvent{Type: "delta", Content: delta}
	})
	if err != nil {
		events <- StreamEvent{Type: "error", Error: fmt.Sprintf("stream read failed: %v", err)}
		return
	}

	events <- StreamEvent{Type: "done", Content: full.String()}
}

// streamPayload is the expected JSON shape of one data line.
type streamPayload struct {
	Content string `json:"content"`
}

// decodeStream reads the chunked stream line by line, calling onDelta for
// each decoded fragment. Partial lines split across read chunks are
// buffered by the scanner; lines whose payload fails to parse are skipped.
// Decoding stops at the `data: [DONE]` terminator.
func decodeStream(r io.Reader, onDelta func(string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil
		}

		var p streamPayload
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			// Malformed line: best-effort decoding, skip it.
			continue
		}
		if p.Content != "" {
			onDelta(p.Content)
		}
	}
	return scanner.Err()
}
