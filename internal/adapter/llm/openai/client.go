package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm"
	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultTimeout = 60 * time.Second
)

// HTTPClient talks to the OpenAI Chat Completions API.
type HTTPClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	retry   llmhttp.RetryConfig
	logger  llmhttp.Logger
}

// NewHTTPClient creates an OpenAI client for the given model.
func NewHTTPClient(apiKey, model string) *HTTPClient {
	return &HTTPClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		retry:   llmhttp.DefaultRetryConfig(),
	}
}

// SetBaseURL overrides the API endpoint, used in tests.
func (c *HTTPClient) SetBaseURL(url string) {
	c.baseURL = url
}

// SetLogger attaches a call logger.
func (c *HTTPClient) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
}

// SetRetryConfig overrides the retry behaviour.
func (c *HTTPClient) SetRetryConfig(cfg llmhttp.RetryConfig) {
	c.retry = cfg
}

// Complete sends the prompt with JSON response mode. A non-zero seed is
// forwarded; combined with temperature zero it makes responses as
// reproducible as the API allows.
func (c *HTTPClient) Complete(ctx context.Context, prompt string, seed int64, maxTokens int) (llm.CompletionResponse, error) {
	request := chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    0,
		MaxTokens:      maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	if seed != 0 {
		request.Seed = &seed
	}

	body, err := json.Marshal(request)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    "openai",
			Model:       c.model,
			Timestamp:   time.Now(),
			PromptChars: len(prompt),
			APIKey:      c.apiKey,
		})
	}

	started := time.Now()
	var parsed chatResponse

	err = llmhttp.Do(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
		if reqErr != nil {
			return &llmhttp.Error{Provider: "openai", Type: llmhttp.ErrTypeUnknown, Message: reqErr.Error()}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			return llmhttp.NewTimeoutError("openai", callErr.Error())
		}
		defer resp.Body.Close()

		payload, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return llmhttp.NewTimeoutError("openai", readErr.Error())
		}

		if resp.StatusCode >= 400 {
			message := fmt.Sprintf("HTTP %d", resp.StatusCode)
			var envelope apiError
			if jsonErr := json.Unmarshal(payload, &envelope); jsonErr == nil && envelope.Error.Message != "" {
				message = envelope.Error.Message
			}
			return llmhttp.ClassifyStatus("openai", resp.StatusCode, message)
		}
		if jsonErr := json.Unmarshal(payload, &parsed); jsonErr != nil {
			return llmhttp.NewBadResponseError("openai", jsonErr.Error())
		}
		return nil
	}, c.retry)

	if err != nil {
		c.logFailure(ctx, started, err)
		return llm.CompletionResponse{}, err
	}

	if len(parsed.Choices) == 0 {
		err := llmhttp.NewBadResponseError("openai", "response contained no choices")
		c.logFailure(ctx, started, err)
		return llm.CompletionResponse{}, err
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:   "openai",
			Model:      parsed.Model,
			Timestamp:  time.Now(),
			Duration:   time.Since(started),
			TokensIn:   parsed.Usage.PromptTokens,
			TokensOut:  parsed.Usage.CompletionTokens,
			StatusCode: http.StatusOK,
		})
	}

	return llm.CompletionResponse{
		Model: parsed.Model,
		Text:  parsed.Choices[0].Message.Content,
		Usage: llm.Usage{TokensIn: parsed.Usage.PromptTokens, TokensOut: parsed.Usage.CompletionTokens},
	}, nil
}

func (c *HTTPClient) logFailure(ctx context.Context, started time.Time, err error) {
	if c.logger == nil {
		return
	}
	entry := llmhttp.ErrorLog{
		Provider:  "openai",
		Model:     c.model,
		Timestamp: time.Now(),
		Duration:  time.Since(started),
		Err:       err,
	}
	var typed *llmhttp.Error
	if errors.As(err, &typed) {
		entry.Type = typed.Type
		entry.StatusCode = typed.StatusCode
		entry.Retryable = typed.Retryable
	}
	c.logger.LogError(ctx, entry)
}
