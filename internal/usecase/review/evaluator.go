package review

import (
	"context"

	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

// EvaluateRequest carries one unit's prompt to a provider.
type EvaluateRequest struct {
	Unit      ReviewUnit
	Prompt    string
	Seed      int64
	MaxTokens int
}

// Evaluation is a provider's raw response for one unit: findings that
// have not yet been deduplicated or severity-filtered, with line
// numbers in the unit's new-file numbering.
type Evaluation struct {
	Issues           []domain.Issue
	PositiveFeedback []string
	Summary          string
}

// Evaluator is the outbound port to an LLM provider. Implementations
// return *domain.ProviderError for transport failures and for
// responses that do not decode against the expected schema.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, req EvaluateRequest) (Evaluation, error)
}
