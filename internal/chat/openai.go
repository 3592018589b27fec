package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/solenne/iris/internal/logging"
)

// OpenAIClient implements Client directly against the OpenAI chat API,
// for deployments that skip the portfolio's own chat backend.
type OpenAIClient struct {
	client *openai.Client
	model  string
	log    *logging.Logger
}

// NewOpenAIClient creates an OpenAI-backed chat client.
func NewOpenAIClient(apiKey, model string, log *logging.Logger) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log.Sub("chat.openai"),
	}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string { return "openai" }

// Stream sends the request and returns a channel of streaming events.
func (c *OpenAIClient) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	events := make(chan StreamEvent)
	go c.streamRequest(ctx, events, req)
	return events, nil
}

func (c *OpenAIClient) streamRequest(ctx context.Context, events chan<- StreamEvent, req Request) {
	defer close(events)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	// The OpenAI API has no context field; fold the session context into a
	// trailing system turn instead.
	if req.Context != nil {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: formatContext(req.Context),
		})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		events <- toErrorEvent(err)
		return
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			events <- toErrorEvent(err)
			return
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		events <- StreamEvent{Type: "delta", Content: delta}
	}

	events <- StreamEvent{Type: "done", Content: full.String()}
}

func toErrorEvent(err error) StreamEvent {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return StreamEvent{Type: "error", Error: ErrRateLimited.Error(), Retryable: true}
	}
	return StreamEvent{Type: "error", Error: fmt.Sprintf("completion failed: %v", err)}
}

func formatContext(sc *SessionContext) string {
	var b strings.Builder
	b.WriteString("Visitor session context.")
	if sc.CurrentPage != "" {
		fmt.Fprintf(&b, " Current page: %s.", sc.CurrentPage)
	}
	if len(sc.TopicsDiscussed) > 0 {
		fmt.Fprintf(&b, " Topics discussed: %s.", strings.Join(sc.TopicsDiscussed, ", "))
	}
	if len(sc.NavigationHistory) > 0 {
		fmt.Fprintf(&b, " Pages visited: %s.", strings.Join(sc.NavigationHistory, " -> "))
	}
	if sc.SessionDuration != "" {
		fmt.Fprintf(&b, " Session duration: %s.", sc.SessionDuration)
	}
	return b.String()
}
