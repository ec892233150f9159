package http_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
)

func TestError_Message(t *testing.T) {
	err := &llmhttp.Error{
		Provider:   "openai",
		Type:       llmhttp.ErrTypeAuthentication,
		Message:    "invalid API key",
		StatusCode: 401,
	}

	assert.Equal(t, "openai: authentication error: invalid API key (status: 401)", err.Error())
}

func TestError_IsMatchesByType(t *testing.T) {
	rateLimited := &llmhttp.Error{Type: llmhttp.ErrTypeRateLimit, Message: "slow down"}
	alsoRateLimited := &llmhttp.Error{Type: llmhttp.ErrTypeRateLimit, Message: "different wording"}
	auth := &llmhttp.Error{Type: llmhttp.ErrTypeAuthentication}

	assert.True(t, errors.Is(rateLimited, alsoRateLimited))
	assert.False(t, errors.Is(rateLimited, auth))
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantType  llmhttp.ErrorType
		retryable bool
	}{
		{name: "unauthorized", status: 401, wantType: llmhttp.ErrTypeAuthentication, retryable: false},
		{name: "forbidden", status: 403, wantType: llmhttp.ErrTypeAuthentication, retryable: false},
		{name: "rate limited", status: 429, wantType: llmhttp.ErrTypeRateLimit, retryable: true},
		{name: "bad request", status: 400, wantType: llmhttp.ErrTypeInvalidRequest, retryable: false},
		{name: "not found", status: 404, wantType: llmhttp.ErrTypeInvalidRequest, retryable: false},
		{name: "server error", status: 500, wantType: llmhttp.ErrTypeServiceUnavailable, retryable: true},
		{name: "unavailable", status: 503, wantType: llmhttp.ErrTypeServiceUnavailable, retryable: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := llmhttp.ClassifyStatus("test", tc.status, "boom")

			assert.Equal(t, tc.wantType, err.Type)
			assert.Equal(t, tc.retryable, err.IsRetryable())
			assert.Equal(t, tc.status, err.StatusCode)
		})
	}
}

func TestNewBadResponseError_NotRetryable(t *testing.T) {
	err := llmhttp.NewBadResponseError("ollama", "not json")

	assert.Equal(t, llmhttp.ErrTypeBadResponse, err.Type)
	assert.False(t, err.IsRetryable())
}

func TestNewTimeoutError_Retryable(t *testing.T) {
	err := llmhttp.NewTimeoutError("openai", "deadline exceeded")

	assert.True(t, err.IsRetryable())
}
