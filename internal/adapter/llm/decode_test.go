package llm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm"
	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

const validResponse = `{
  "issues": [
    {
      "type": "bug",
      "severity": "high",
      "line": 14,
      "message": "Division by zero when numbers is empty",
      "suggestion": "Guard against an empty list"
    }
  ],
  "positive_feedback": ["Clear function naming"],
  "summary": "One bug found."
}`

func TestDecodeEvaluation_Valid(t *testing.T) {
	evaluation, err := llm.DecodeEvaluation("openai", "calc.py", validResponse)

	require.NoError(t, err)
	require.Len(t, evaluation.Issues, 1)

	issue := evaluation.Issues[0]
	assert.Equal(t, domain.IssueBug, issue.Type)
	assert.Equal(t, domain.SeverityHigh, issue.Severity)
	assert.Equal(t, "calc.py", issue.File)
	assert.Equal(t, 14, issue.Line)
	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, []string{"Clear function naming"}, evaluation.PositiveFeedback)
	assert.Equal(t, "One bug found.", evaluation.Summary)
}

func TestDecodeEvaluation_MarkdownFence(t *testing.T) {
	fenced := "Here is my review:\n```json\n" + validResponse + "\n```"

	evaluation, err := llm.DecodeEvaluation("anthropic", "calc.py", fenced)

	require.NoError(t, err)
	assert.Len(t, evaluation.Issues, 1)
}

func TestDecodeEvaluation_RejectsUnknownSeverity(t *testing.T) {
	text := `{"issues":[{"type":"bug","severity":"urgent","line":3,"message":"bad"}]}`

	_, err := llm.DecodeEvaluation("openai", "x.go", text)

	assertBadResponse(t, err)
}

func TestDecodeEvaluation_RejectsUnknownType(t *testing.T) {
	text := `{"issues":[{"type":"nitpick","severity":"low","line":3,"message":"bad"}]}`

	_, err := llm.DecodeEvaluation("openai", "x.go", text)

	assertBadResponse(t, err)
}

func TestDecodeEvaluation_RejectsUnknownFields(t *testing.T) {
	text := `{"issues":[],"confidence":0.9}`

	_, err := llm.DecodeEvaluation("openai", "x.go", text)

	assertBadResponse(t, err)
}

func TestDecodeEvaluation_RejectsNonPositiveLine(t *testing.T) {
	text := `{"issues":[{"type":"bug","severity":"low","line":0,"message":"bad"}]}`

	_, err := llm.DecodeEvaluation("openai", "x.go", text)

	assertBadResponse(t, err)
}

func TestDecodeEvaluation_RejectsEmptyMessage(t *testing.T) {
	text := `{"issues":[{"type":"bug","severity":"low","line":3,"message":"  "}]}`

	_, err := llm.DecodeEvaluation("openai", "x.go", text)

	assertBadResponse(t, err)
}

func TestDecodeEvaluation_RejectsProse(t *testing.T) {
	_, err := llm.DecodeEvaluation("openai", "x.go", "Looks good to me!")

	assertBadResponse(t, err)
}

func assertBadResponse(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var typed *llmhttp.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, llmhttp.ErrTypeBadResponse, typed.Type)
	assert.False(t, typed.Retryable)
}

func TestEstimateTokens_NonEmpty(t *testing.T) {
	count := llm.EstimateTokens("func main() { fmt.Println(42) }")
	assert.Greater(t, count, 0)
}
