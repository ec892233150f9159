package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm"
	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
)

const (
	defaultBaseURL = "http://localhost:11434"
	// Local models can be slow, especially on first load.
	defaultTimeout = 120 * time.Second
)

// HTTPClient talks to a local Ollama server.
type HTTPClient struct {
	baseURL string
	model   string
	client  *http.Client
	retry   llmhttp.RetryConfig
}

// NewHTTPClient creates an Ollama client. An empty baseURL uses the
// standard local address.
func NewHTTPClient(baseURL, model string) *HTTPClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: defaultTimeout},
		retry:   llmhttp.DefaultRetryConfig(),
	}
}

// SetTimeout adjusts the HTTP timeout.
func (c *HTTPClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// SetRetryConfig overrides the retry behaviour.
func (c *HTTPClient) SetRetryConfig(cfg llmhttp.RetryConfig) {
	c.retry = cfg
}

// Complete sends the prompt in JSON mode with a fixed seed and zero
// temperature, which makes local models fully deterministic.
func (c *HTTPClient) Complete(ctx context.Context, prompt string, seed int64, maxTokens int) (llm.CompletionResponse, error) {
	options := map[string]interface{}{
		"temperature": 0,
	}
	if seed != 0 {
		options["seed"] = seed
	}
	if maxTokens > 0 {
		options["num_predict"] = maxTokens
	}

	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Format:  "json",
		Options: options,
	})
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	var parsed generateResponse
	err = llmhttp.Do(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
		if reqErr != nil {
			return &llmhttp.Error{Provider: "ollama", Type: llmhttp.ErrTypeUnknown, Message: reqErr.Error()}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			return llmhttp.NewTimeoutError("ollama", callErr.Error())
		}
		defer resp.Body.Close()

		payload, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return llmhttp.NewTimeoutError("ollama", readErr.Error())
		}

		if resp.StatusCode >= 400 {
			message := fmt.Sprintf("HTTP %d", resp.StatusCode)
			var envelope errorResponse
			if jsonErr := json.Unmarshal(payload, &envelope); jsonErr == nil && envelope.Error != "" {
				message = envelope.Error
			}
			return llmhttp.ClassifyStatus("ollama", resp.StatusCode, message)
		}
		if jsonErr := json.Unmarshal(payload, &parsed); jsonErr != nil {
			return llmhttp.NewBadResponseError("ollama", jsonErr.Error())
		}
		return nil
	}, c.retry)

	if err != nil {
		return llm.CompletionResponse{}, err
	}
	if parsed.Response == "" {
		return llm.CompletionResponse{}, llmhttp.NewBadResponseError("ollama", "empty response")
	}

	return llm.CompletionResponse{
		Model: parsed.Model,
		Text:  parsed.Response,
		Usage: llm.Usage{TokensIn: parsed.PromptEvalCount, TokensOut: parsed.EvalCount},
	}, nil
}
