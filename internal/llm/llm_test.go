package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/productreview/internal/config"
	"github.com/utafrali/productreview/pkg/httpclient"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGenerator struct {
	calls atomic.Int32
	fn    func(ctx context.Context, req Request) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (string, error) {
	f.calls.Add(1)
	return f.fn(ctx, req)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name, in, want string
		wantErr        bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, false},
		{"code fence", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`, false},
		{"prose around", `Sure! {"a":1} hope this helps`, `{"a":1}`, false},
		{"no object", `no json here`, "", true},
		{"reversed braces", `} {`, "", true},
		{"empty", ``, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJSONObject)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenAI_Generate(t *testing.T) {
	var got struct {
		Model          string  `json:"model"`
		Temperature    float32 `json:"temperature"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"takeaway\":\"ok\"}"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	gen := NewOpenAI("test-key", "llama-3.3-70b-versatile", srv.URL, srv.Client())
	text, err := gen.Generate(context.Background(), Request{System: "sys", Prompt: "user", Temperature: 0.2, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"takeaway":"ok"}`, text)

	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 0.0001)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOpenAI_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited","type":"rate_limit"}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAI("k", "m", srv.URL, srv.Client()).Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
}

func TestOpenAI_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"   "}}]}`)
	}))
	defer srv.Close()

	_, err := NewOpenAI("k", "m", srv.URL, srv.Client()).Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropic_Generate(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		System      []struct {
			Text string `json:"text"`
		} `json:"system"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude","content":[{"type":"text","text":"{\"translations\":[\"Hola\"]}"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":5}}`)
	}))
	defer srv.Close()

	gen := NewAnthropic("test-key", "claude", srv.URL, srv.Client())
	text, err := gen.Generate(context.Background(), Request{System: "sys", Prompt: "p", Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, `{"translations":["Hola"]}`, text)
	assert.Equal(t, "claude", got.Model)
	assert.InDelta(t, 0.1, got.Temperature, 0.0001)
	require.Len(t, got.System, 1)
	assert.Equal(t, "sys", got.System[0].Text)
}

func TestGuarded_SuccessRecordsMetrics(t *testing.T) {
	next := &fakeGenerator{fn: func(context.Context, Request) (string, error) { return "text", nil }}
	g := NewGuarded(next, GuardConfig{Purpose: "test-success", Provider: "fake", Timeout: time.Second}, newTestLogger())

	text, err := g.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "text", text)
	assert.Equal(t, 1.0, testutil.ToFloat64(requestsTotal.WithLabelValues("test-success", "fake", OutcomeSuccess)))
}

func TestGuarded_TimeoutBoundsCall(t *testing.T) {
	next := &fakeGenerator{fn: func(ctx context.Context, _ Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := NewGuarded(next, GuardConfig{Purpose: "test-timeout", Provider: "fake", Timeout: 20 * time.Millisecond}, newTestLogger())

	start := time.Now()
	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(requestsTotal.WithLabelValues("test-timeout", "fake", OutcomeTimeout)))
}

func TestGuarded_BreakerOpensAfterFailures(t *testing.T) {
	boom := errors.New("boom")
	next := &fakeGenerator{fn: func(context.Context, Request) (string, error) { return "", boom }}
	g := NewGuarded(next, GuardConfig{Purpose: "test-breaker", Provider: "fake"}, newTestLogger())

	for i := 0; i < 5; i++ {
		_, err := g.Generate(context.Background(), Request{Prompt: "p"})
		assert.ErrorIs(t, err, boom)
	}

	_, err := g.Generate(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, httpclient.ErrCircuitOpen)
	assert.Equal(t, int32(5), next.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(requestsTotal.WithLabelValues("test-breaker", "fake", OutcomeCircuitOpen)))
}

func TestFromConfig_DisabledWithoutKey(t *testing.T) {
	g, err := FromConfig(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI}, "summary", newTestLogger())
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestFromConfig_OpenAI(t *testing.T) {
	g, err := FromConfig(context.Background(), config.AIConfig{
		Provider:       config.ProviderOpenAI,
		APIKey:         "k",
		Model:          "m",
		BaseURL:        config.DefaultAIBaseURL,
		ConnectTimeout: time.Second,
		RequestTimeout: 6 * time.Second,
	}, "summary", newTestLogger())
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.IsType(t, &OpenAI{}, g.next)
	assert.Equal(t, 6*time.Second, g.timeout)
	assert.NoError(t, g.Close())
}

func TestFromConfig_UnknownProvider(t *testing.T) {
	_, err := FromConfig(context.Background(), config.AIConfig{Provider: "ollama", APIKey: "k"}, "summary", newTestLogger())
	assert.Error(t, err)
}
