// Package observability bridges the HTTP-layer structured logger into
// the review pipeline's logging port.
package observability

import (
	"context"

	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
	"github.com/ssivitskiy/ai-code-reviewer/internal/usecase/review"
)

// ReviewLogger adapts llmhttp.Logger to review.Logger, so the pipeline
// and the provider clients share one logging sink.
type ReviewLogger struct {
	logger llmhttp.Logger
}

// NewReviewLogger wraps an llmhttp.Logger for use by the review service.
func NewReviewLogger(logger llmhttp.Logger) review.Logger {
	return &ReviewLogger{logger: logger}
}

// LogInfo logs an informational message with structured fields.
func (l *ReviewLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogInfo(ctx, message, fields)
}

// LogWarning logs a warning message with structured fields.
func (l *ReviewLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogWarning(ctx, message, fields)
}
