package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/anthropic"
	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
)

func TestHTTPClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-sonnet", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "claude-sonnet",
			"content": [{"type": "text", "text": "{\"issues\":[]}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("test-key", "claude-sonnet")
	client.SetBaseURL(server.URL)

	resp, err := client.Complete(context.Background(), "review this", 4096)

	require.NoError(t, err)
	assert.Equal(t, `{"issues":[]}`, resp.Text)
	assert.Equal(t, 10, resp.Usage.TokensIn)
	assert.Equal(t, 5, resp.Usage.TokensOut)
}

func TestHTTPClient_AuthErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("bad-key", "claude-sonnet")
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), "prompt", 1024)

	require.Error(t, err)
	var typed *llmhttp.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, llmhttp.ErrTypeAuthentication, typed.Type)
	assert.Contains(t, typed.Message, "invalid x-api-key")
	assert.Equal(t, 1, calls)
}

func TestHTTPClient_OverloadedIsRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(529)
			_, _ = w.Write([]byte(`{"error":{"type":"overloaded_error","message":"overloaded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"model":"claude-sonnet","content":[{"type":"text","text":"ok"}],"usage":{}}`))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("key", "claude-sonnet")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(llmhttp.RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1})

	resp, err := client.Complete(context.Background(), "prompt", 1024)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, calls)
}

func TestHTTPClient_EmptyContentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"claude-sonnet","content":[],"usage":{}}`))
	}))
	defer server.Close()

	client := anthropic.NewHTTPClient("key", "claude-sonnet")
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), "prompt", 1024)

	var typed *llmhttp.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, llmhttp.ErrTypeBadResponse, typed.Type)
}
