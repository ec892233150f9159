package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm"
	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultTimeout   = 60 * time.Second
	anthropicVersion = "2023-06-01"
)

// HTTPClient talks to the Anthropic Messages API.
type HTTPClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	retry   llmhttp.RetryConfig
	logger  llmhttp.Logger
}

// NewHTTPClient creates an Anthropic client for the given model.
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

// Complete sends the prompt and returns the raw model text. Anthropic
// has no seed parameter; temperature zero keeps output as stable as the
// API allows.
func (c *HTTPClient) Complete(ctx context.Context, prompt string, maxTokens int) (llm.CompletionResponse, error) {
	body, err := json.Marshal(messagesRequest{
		Model:       c.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:    "anthropic",
			Model:       c.model,
			Timestamp:   time.Now(),
			PromptChars: len(prompt),
			APIKey:      c.apiKey,
		})
	}

	started := time.Now()
	var parsed messagesResponse

	err = llmhttp.Do(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
		if reqErr != nil {
			return &llmhttp.Error{Provider: "anthropic", Type: llmhttp.ErrTypeUnknown, Message: reqErr.Error()}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			return llmhttp.NewTimeoutError("anthropic", callErr.Error())
		}
		defer resp.Body.Close()

		payload, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return llmhttp.NewTimeoutError("anthropic", readErr.Error())
		}

		if resp.StatusCode >= 400 {
			return classifyError(resp.StatusCode, payload)
		}
		if jsonErr := json.Unmarshal(payload, &parsed); jsonErr != nil {
			return llmhttp.NewBadResponseError("anthropic", jsonErr.Error())
		}
		return nil
	}, c.retry)

	if err != nil {
		c.logFailure(ctx, started, err)
		return llm.CompletionResponse{}, err
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		err := llmhttp.NewBadResponseError("anthropic", "response contained no text blocks")
		c.logFailure(ctx, started, err)
		return llm.CompletionResponse{}, err
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:   "anthropic",
			Model:      parsed.Model,
			Timestamp:  time.Now(),
			Duration:   time.Since(started),
			TokensIn:   parsed.Usage.InputTokens,
			TokensOut:  parsed.Usage.OutputTokens,
			StatusCode: http.StatusOK,
		})
	}

	return llm.CompletionResponse{
		Model: parsed.Model,
		Text:  text.String(),
		Usage: llm.Usage{TokensIn: parsed.Usage.InputTokens, TokensOut: parsed.Usage.OutputTokens},
	}, nil
}

func (c *HTTPClient) logFailure(ctx context.Context, started time.Time, err error) {
	if c.logger == nil {
		return
	}
	entry := llmhttp.ErrorLog{
		Provider:  "anthropic",
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

// classifyError maps the API error envelope to a typed error. The 529
// overloaded status is Anthropic-specific and retryable.
func classifyError(status int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", status)
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	if status == 529 {
		return &llmhttp.Error{
			Provider:   "anthropic",
			Type:       llmhttp.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: status,
			Retryable:  true,
		}
	}
	return llmhttp.ClassifyStatus("anthropic", status, message)
}
