package chat

import "context"

// MockClient is a test double for Client.
type MockClient struct {
	ProviderName string
	StreamFunc   func(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

func (m *MockClient) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockClient) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}
	ch := make(chan StreamEvent, 2)
	ch <- StreamEvent{Type: "delta", Content: "mock "}
	ch <- StreamEvent{Type: "done", Content: "mock stream response"}
	close(ch)
	return ch, nil
}

// ScriptedStream builds a closed event channel from the given events,
// useful for table-style controller tests.
func ScriptedStream(events ...StreamEvent) func(context.Context, Request) (<-chan StreamEvent, error) {
	return func(context.Context, Request) (<-chan StreamEvent, error) {
		ch := make(chan StreamEvent, len(events))
		for _, ev := range events {
			ch <- ev
		}
		close(ch)
		return ch, nil
	}
}
