package openai

import (
	"context"

	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm"
	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
	"github.com/ssivitskiy/ai-code-reviewer/internal/usecase/review"
)

const providerName = "openai"

// Client abstracts the OpenAI HTTP client behaviour the provider needs.
type Client interface {
	Complete(ctx context.Context, prompt string, seed int64, maxTokens int) (llm.CompletionResponse, error)
}

// Provider adapts the OpenAI API to the review Evaluator port.
type Provider struct {
	client Client
}

var _ review.Evaluator = (*Provider)(nil)

// NewProvider constructs a Provider around the given client.
func NewProvider(client Client) *Provider {
	return &Provider{client: client}
}

// New constructs a Provider with the default HTTP client.
func New(apiKey, model string) *Provider {
	return NewProvider(NewHTTPClient(apiKey, model))
}

func (p *Provider) Name() string {
	return providerName
}

// Evaluate sends the unit's prompt and decodes the structured response.
func (p *Provider) Evaluate(ctx context.Context, req review.EvaluateRequest) (review.Evaluation, error) {
	resp, err := p.client.Complete(ctx, req.Prompt, req.Seed, req.MaxTokens)
	if err != nil {
		return review.Evaluation{}, &domain.ProviderError{Provider: providerName, Unit: req.Unit.ID, Err: err}
	}

	evaluation, err := llm.DecodeEvaluation(providerName, req.Unit.File, resp.Text)
	if err != nil {
		return review.Evaluation{}, &domain.ProviderError{Provider: providerName, Unit: req.Unit.ID, Err: err}
	}
	return evaluation, nil
}
