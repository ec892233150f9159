package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
	"github.com/ssivitskiy/ai-code-reviewer/internal/usecase/review"
)

// Wire shape all providers are instructed to return.
type wireIssue struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Line           int    `json:"line"`
	EndLine        int    `json:"end_line"`
	Message        string `json:"message"`
	Suggestion     string `json:"suggestion"`
	CodeSuggestion string `json:"code_suggestion"`
}

type wireResponse struct {
	Issues           []wireIssue `json:"issues"`
	PositiveFeedback []string    `json:"positive_feedback"`
	Summary          string      `json:"summary"`
}

// DecodeEvaluation parses a model's text response into an Evaluation,
// validating strictly against the expected schema. Unknown fields,
// unknown type or severity values, missing messages, and non-positive
// line numbers all reject the whole response: a provider that cannot
// follow the schema is treated the same as one that failed.
func DecodeEvaluation(provider, file, text string) (review.Evaluation, error) {
	payload := llmhttp.StripCodeFence(text)

	decoder := json.NewDecoder(strings.NewReader(payload))
	decoder.DisallowUnknownFields()

	var wire wireResponse
	if err := decoder.Decode(&wire); err != nil {
		return review.Evaluation{}, llmhttp.NewBadResponseError(provider, fmt.Sprintf("decoding review JSON: %v", err))
	}

	evaluation := review.Evaluation{
		PositiveFeedback: wire.PositiveFeedback,
		Summary:          wire.Summary,
	}

	for i, raw := range wire.Issues {
		typ, err := domain.ParseIssueType(raw.Type)
		if err != nil {
			return review.Evaluation{}, llmhttp.NewBadResponseError(provider, fmt.Sprintf("issue %d: %v", i, err))
		}
		severity, err := domain.ParseSeverity(raw.Severity)
		if err != nil {
			return review.Evaluation{}, llmhttp.NewBadResponseError(provider, fmt.Sprintf("issue %d: %v", i, err))
		}
		if raw.Line < 1 {
			return review.Evaluation{}, llmhttp.NewBadResponseError(provider, fmt.Sprintf("issue %d: line %d is not a valid line number", i, raw.Line))
		}
		if strings.TrimSpace(raw.Message) == "" {
			return review.Evaluation{}, llmhttp.NewBadResponseError(provider, fmt.Sprintf("issue %d: empty message", i))
		}

		evaluation.Issues = append(evaluation.Issues, domain.NewIssue(domain.IssueInput{
			Type:           typ,
			Severity:       severity,
			File:           file,
			Line:           raw.Line,
			EndLine:        raw.EndLine,
			Message:        raw.Message,
			Suggestion:     raw.Suggestion,
			CodeSuggestion: raw.CodeSuggestion,
		}))
	}

	return evaluation, nil
}
