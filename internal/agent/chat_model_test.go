package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewChatModelRequiresKey(t *testing.T) {
	_, err := NewChatModel("  ", "", "")
	assert.Error(t, err)

	m, err := NewChatModel("key", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModelName, m.modelName)
	assert.Equal(t, DefaultBaseURL+"/chat/completions", m.endpoint)
}

func TestChatModelGenerate(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer srv.Close()

	m, err := NewChatModel("secret", "qwen-plus", srv.URL+"/v1/", WithDefaults(0.3, 2000))
	require.NoError(t, err)

	out, err := m.Generate(context.Background(),
		[]*schema.Message{schema.SystemMessage("sys"), schema.UserMessage("hi")},
		model.WithTemperature(0.7), model.WithMaxTokens(500),
	)
	require.NoError(t, err)

	assert.Equal(t, "hello", out.Content)
	assert.Equal(t, schema.Assistant, out.Role)
	require.NotNil(t, out.ResponseMeta)
	assert.Equal(t, "stop", out.ResponseMeta.FinishReason)
	assert.Equal(t, 4, out.ResponseMeta.Usage.TotalTokens)

	assert.Equal(t, "qwen-plus", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hi", *got.Messages[1].Content)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.7, *got.Temperature, 1e-6)
	require.NotNil(t, got.MaxTokens)
	assert.Equal(t, 500, *got.MaxTokens)
}

func TestChatModelDefaultsApplied(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	m, err := NewChatModel("k", "", srv.URL, WithDefaults(0.3, 2000))
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
	require.NoError(t, err)

	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.3, *got.Temperature, 1e-6)
	assert.Equal(t, 2000, *got.MaxTokens)
}

func TestChatModelErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"rate limit"}}`},
		{"api error", http.StatusOK, `{"error":{"code":"bad","message":"nope"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"bad json", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			m, err := NewChatModel("k", "", srv.URL)
			require.NoError(t, err)
			_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
			assert.Error(t, err)
		})
	}
}

func TestChatModelWithToolsDoesNotMutate(t *testing.T) {
	m, err := NewChatModel("k", "", "")
	require.NoError(t, err)

	bound, err := m.WithTools([]*schema.ToolInfo{{Name: "lookup", Desc: "look up"}, nil})
	require.NoError(t, err)

	assert.Empty(t, m.tools)
	cm, ok := bound.(*ChatModel)
	require.True(t, ok)
	require.Len(t, cm.tools, 1)
	assert.Equal(t, "lookup", cm.tools[0].Function.Name)
}

func TestMockChatModel(t *testing.T) {
	m := NewMockChatModelSequential(MockResponse{Content: "one"}, MockResponse{Error: errors.New("boom")})

	out, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("a")}, model.WithTemperature(0.5))
	require.NoError(t, err)
	assert.Equal(t, "one", out.Content)
	assert.InDelta(t, 0.5, *m.LastOptions().Temperature, 1e-6)

	_, err = m.Generate(context.Background(), nil)
	assert.EqualError(t, err, "boom")

	_, err = m.Generate(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, 3, m.Calls())

	fixed := NewMockChatModel("same", nil)
	out, err = fixed.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")})
	require.NoError(t, err)
	assert.Equal(t, "same", out.Content)
	assert.Equal(t, "q", fixed.LastMessages()[0].Content)
}

func TestChatModelTimeoutRecordedOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	defer otel.SetTracerProvider(prev)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	m, err := NewChatModel("k", "", srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = m.Generate(ctx, []*schema.Message{schema.UserMessage("x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	var errorType string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "error.type" {
			errorType = kv.Value.AsString()
		}
	}
	assert.Equal(t, "timeout", errorType)
}
