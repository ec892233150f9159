package http_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
)

func captureLog(t *testing.T, fn func()) string {
	t.Helper()
	original := log.Writer()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(original)

	fn()
	return buf.String()
}

func TestDefaultLogger_RedactsAPIKeyInRequests(t *testing.T) {
	logger := llmhttp.NewDefaultLogger(llmhttp.LogLevelDebug, llmhttp.LogFormatHuman)

	out := captureLog(t, func() {
		logger.LogRequest(context.Background(), llmhttp.RequestLog{
			Provider:    "openai",
			Model:       "gpt-4o",
			Timestamp:   time.Now(),
			PromptChars: 120,
			APIKey:      "sk-secret-key-1234",
		})
	})

	assert.NotContains(t, out, "sk-secret-key-1234")
	assert.Contains(t, out, "[REDACTED-1234]")
}

func TestDefaultLogger_LevelSuppressesDebug(t *testing.T) {
	logger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatHuman)

	out := captureLog(t, func() {
		logger.LogRequest(context.Background(), llmhttp.RequestLog{Provider: "openai"})
	})

	assert.Empty(t, out)
}

func TestDefaultLogger_ResponseHuman(t *testing.T) {
	logger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatHuman)

	out := captureLog(t, func() {
		logger.LogResponse(context.Background(), llmhttp.ResponseLog{
			Provider:  "anthropic",
			Model:     "claude",
			Timestamp: time.Now(),
			Duration:  1500 * time.Millisecond,
			TokensIn:  100,
			TokensOut: 50,
		})
	})

	assert.Contains(t, out, "anthropic/claude")
	assert.Contains(t, out, "tokens=100/50")
}

func TestDefaultLogger_ErrorJSON(t *testing.T) {
	logger := llmhttp.NewDefaultLogger(llmhttp.LogLevelError, llmhttp.LogFormatJSON)

	out := captureLog(t, func() {
		logger.LogError(context.Background(), llmhttp.ErrorLog{
			Provider:   "ollama",
			Model:      "llama3",
			Timestamp:  time.Now(),
			Err:        errors.New("connection refused"),
			StatusCode: 0,
			Retryable:  true,
		})
	})

	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"retryable":true`)
	assert.Contains(t, out, "connection refused")
}
