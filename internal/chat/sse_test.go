package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solenne/iris/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(io.Discard, "silent")
}

// chunkedReader yields the underlying data in fixed-size chunks so tests
// can split stream lines at arbitrary byte boundaries.
type chunkedReader struct {
	data []byte
	pos  int
	size int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	end := r.pos + r.size
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.pos:end])
	r.pos += n
	return n, nil
}

const sampleStream = "data: {\"content\": \"Hello\"}\n" +
	"data: {\"content\": \", \"}\n" +
	"data: {\"content\": \"world\"}\n" +
	"data: {\"content\": \"!\"}\n" +
	"data: [DONE]\n"

func collectStream(t *testing.T, r io.Reader) string {
	t.Helper()
	var full strings.Builder
	err := decodeStream(r, func(delta string) { full.WriteString(delta) })
	require.NoError(t, err)
	return full.String()
}

func TestDecodeStream_SingleChunk(t *testing.T) {
	got := collectStream(t, strings.NewReader(sampleStream))
	assert.Equal(t, "Hello, world!", got)
}

func TestDecodeStream_ArbitraryChunkBoundaries(t *testing.T) {
	// Splitting the byte stream at any boundary must reconstruct the same
	// accumulated text as one unbroken chunk.
	for _, size := range []int{1, 2, 3, 5, 7, 13, 64} {
		r := &chunkedReader{data: []byte(sampleStream), size: size}
		assert.Equal(t, "Hello, world!", collectStream(t, r), "chunk size %d", size)
	}
}

func TestDecodeStream_MalformedLinesSkipped(t *testing.T) {
	in := "data: {\"content\": \"keep\"}\n" +
		"data: {not json at all\n" +
		"data: 42\n" +
		": comment line\n" +
		"data: {\"content\": \" this\"}\n" +
		"data: [DONE]\n"
	assert.Equal(t, "keep this", collectStream(t, strings.NewReader(in)))
}

func TestDecodeStream_StopsAtDone(t *testing.T) {
	in := sampleStream + "data: {\"content\": \"after done\"}\n"
	assert.Equal(t, "Hello, world!", collectStream(t, strings.NewReader(in)))
}

func TestDecodeStream_NoTerminator(t *testing.T) {
	in := "data: {\"content\": \"partial\"}\n"
	assert.Equal(t, "partial", collectStream(t, strings.NewReader(in)))
}

func TestSSEClient_StreamHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "\"messages\"")
		io.WriteString(w, sampleStream)
	}))
	defer srv.Close()

	c := NewSSEClient(srv.URL, "", testLogger())
	events, err := c.Stream(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	var deltas []string
	var done *StreamEvent
	for ev := range events {
		switch ev.Type {
		case "delta":
			deltas = append(deltas, ev.Content)
		case "done":
			cp := ev
			done = &cp
		case "error":
			t.Fatalf("unexpected error event: %s", ev.Error)
		}
	}
	require.NotNil(t, done)
	assert.Equal(t, "Hello, world!", done.Content)
	assert.Equal(t, strings.Join(deltas, ""), done.Content)
}

func TestSSEClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewSSEClient(srv.URL, "", testLogger())
	events, err := c.Stream(context.Background(), Request{})
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, "error", ev.Type)
	assert.True(t, ev.Retryable)
	assert.Equal(t, ErrRateLimited.Error(), ev.Error)

	_, open := <-events
	assert.False(t, open, "channel must close after the error event")
}

func TestSSEClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewSSEClient(srv.URL, "", testLogger())
	events, err := c.Stream(context.Background(), Request{})
	require.NoError(t, err)

	ev := <-events
	assert.Equal(t, "error", ev.Type)
	assert.False(t, ev.Retryable)
	assert.Contains(t, ev.Error, "500")
}

func TestSSEClient_SendsSessionContext(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = string(body)
		io.WriteString(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	c := NewSSEClient(srv.URL, "secret", testLogger())
	events, err := c.Stream(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Context: &SessionContext{
			TopicsDiscussed: []string{"projects"},
			CurrentPage:     "/resume",
		},
	})
	require.NoError(t, err)
	for range events {
	}

	assert.Contains(t, got, "\"currentPage\":\"/resume\"")
	assert.Contains(t, got, "\"projects\"")
}
