package static

import (
	"context"

	"github.com/ssivitskiy/ai-code-reviewer/internal/diff"
	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
	"github.com/ssivitskiy/ai-code-reviewer/internal/usecase/review"
)

const providerName = "static"

// Provider implements the Evaluator port with a fixed response.
type Provider struct{}

var _ review.Evaluator = Provider{}

// NewProvider constructs a static Provider.
func NewProvider() Provider {
	return Provider{}
}

func (Provider) Name() string {
	return providerName
}

// Evaluate reports one low-severity suggestion on the unit's first
// changed line, so the finding always survives range validation.
func (Provider) Evaluate(ctx context.Context, req review.EvaluateRequest) (review.Evaluation, error) {
	line := firstChangedLine(req.Unit.Hunks)
	if line == 0 {
		return review.Evaluation{Summary: "No reviewable lines."}, nil
	}

	issue := domain.NewIssue(domain.IssueInput{
		Type:     domain.IssueSuggestion,
		Severity: domain.SeverityLow,
		File:     req.Unit.File,
		Line:     line,
		Message:  "Static review placeholder: verify this change has test coverage.",
	})

	return review.Evaluation{
		Issues:           []domain.Issue{issue},
		PositiveFeedback: []string{"Change is small and focused."},
		Summary:          "Static review generated without a model call.",
	}, nil
}

func firstChangedLine(hunks []diff.Hunk) int {
	for _, hunk := range hunks {
		for _, line := range hunk.Lines {
			if line.Kind == diff.LineAdded && line.NewLine != nil {
				return *line.NewLine
			}
		}
	}
	// Removal-only hunks have no new-side lines to anchor to.
	return 0
}
