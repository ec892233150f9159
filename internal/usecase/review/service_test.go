package review_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssivitskiy/ai-code-reviewer/internal/diff"
	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
	"github.com/ssivitskiy/ai-code-reviewer/internal/usecase/review"
)

// fakeEvaluator returns canned evaluations keyed by unit file, and can
// fail specific units.
type fakeEvaluator struct {
	mu        sync.Mutex
	calls     []string
	failUnits map[string]error
	respond   func(req review.EvaluateRequest) review.Evaluation
}

func (f *fakeEvaluator) Name() string { return "fake" }

func (f *fakeEvaluator) Evaluate(ctx context.Context, req review.EvaluateRequest) (review.Evaluation, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Unit.ID)
	f.mu.Unlock()

	if err, ok := f.failUnits[req.Unit.ID]; ok {
		return review.Evaluation{}, err
	}
	if f.respond != nil {
		return f.respond(req), nil
	}
	return review.Evaluation{}, nil
}

func (f *fakeEvaluator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func defaultOptions() review.Options {
	return review.Options{
		UnitSizeThreshold: 100,
		ContextLines:      3,
		ConcurrencyLimit:  2,
		PerCallTimeout:    time.Second,
		Aggregation: review.AggregateConfig{
			SeverityThreshold: domain.SeverityLow,
			DedupSimilarity:   0.6,
			QualityWeights:    review.DefaultQualityWeights,
		},
	}
}

const threeFileDiff = `diff --git a/a.py b/a.py
--- a/a.py
+++ b/a.py
@@ -1,1 +1,2 @@
 import os
+x = 1
diff --git a/b.py b/b.py
--- a/b.py
+++ b/b.py
@@ -1,1 +1,2 @@
 import os
+y = 2
diff --git a/c.py b/c.py
--- a/c.py
+++ b/c.py
@@ -1,1 +1,2 @@
 import os
+z = 3
`

func TestService_ReviewDiff_AggregatesAcrossUnits(t *testing.T) {
	evaluator := &fakeEvaluator{
		respond: func(req review.EvaluateRequest) review.Evaluation {
			return review.Evaluation{Issues: []domain.Issue{
				domain.NewIssue(domain.IssueInput{
					Type:     domain.IssueStyle,
					Severity: domain.SeverityLow,
					File:     req.Unit.File,
					Line:     2,
					Message:  "single letter variable name in " + req.Unit.File,
				}),
			}}
		},
	}
	service, err := review.NewService(review.Deps{Evaluator: evaluator}, defaultOptions())
	require.NoError(t, err)

	report, err := service.ReviewDiff(context.Background(), threeFileDiff)

	require.NoError(t, err)
	assert.Len(t, report.Issues, 3)
	assert.Equal(t, 3, evaluator.callCount())
	assert.Empty(t, report.Diagnostics)
}

func TestService_ReviewDiff_MalformedDiffFailsBeforeEvaluation(t *testing.T) {
	evaluator := &fakeEvaluator{}
	service, err := review.NewService(review.Deps{Evaluator: evaluator}, defaultOptions())
	require.NoError(t, err)

	_, err = service.ReviewDiff(context.Background(), `--- a/x.go
+++ b/x.go
@@ -1,5 +1,5 @@
 only one line
`)

	var malformed *diff.MalformedDiffError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 0, evaluator.callCount())
}

func TestService_ReviewDiff_ProviderFailureIsolatedPerUnit(t *testing.T) {
	evaluator := &fakeEvaluator{
		failUnits: map[string]error{
			"b.py#1": &domain.ProviderError{Provider: "fake", Unit: "b.py#1", Err: errors.New("rate limited")},
		},
		respond: func(req review.EvaluateRequest) review.Evaluation {
			return review.Evaluation{Issues: []domain.Issue{
				domain.NewIssue(domain.IssueInput{
					Type:     domain.IssueBug,
					Severity: domain.SeverityHigh,
					File:     req.Unit.File,
					Line:     2,
					Message:  "unchecked value in " + req.Unit.File,
				}),
			}}
		},
	}
	service, err := review.NewService(review.Deps{Evaluator: evaluator}, defaultOptions())
	require.NoError(t, err)

	report, err := service.ReviewDiff(context.Background(), threeFileDiff)

	require.NoError(t, err)
	assert.Len(t, report.Issues, 2)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, domain.DiagProviderFailure, report.Diagnostics[0].Kind)
	assert.Equal(t, "b.py#1", report.Diagnostics[0].Unit)
}

func TestService_ReviewDiff_PlainErrorWrappedAsProviderFailure(t *testing.T) {
	evaluator := &fakeEvaluator{
		failUnits: map[string]error{"a.py#1": errors.New("connection reset")},
	}
	opts := defaultOptions()
	service, err := review.NewService(review.Deps{Evaluator: evaluator}, opts)
	require.NoError(t, err)

	report, err := service.ReviewDiff(context.Background(), `diff --git a/a.py b/a.py
--- a/a.py
+++ b/a.py
@@ -1,1 +1,2 @@
 import os
+x = 1
`)

	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	assert.Contains(t, report.Diagnostics[0].Message, "connection reset")
}

func TestService_ReviewDiff_CancelledContextKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	evaluator := &fakeEvaluator{}
	service, err := review.NewService(review.Deps{Evaluator: evaluator}, defaultOptions())
	require.NoError(t, err)

	report, err := service.ReviewDiff(ctx, threeFileDiff)

	// The report is still produced; unstarted units appear as diagnostics.
	require.NoError(t, err)
	assert.Len(t, report.Diagnostics, 3)
	assert.Equal(t, 0, evaluator.callCount())
}

func TestService_ReviewCode_BuildsSyntheticUnit(t *testing.T) {
	var captured review.EvaluateRequest
	evaluator := &fakeEvaluator{
		respond: func(req review.EvaluateRequest) review.Evaluation {
			captured = req
			return review.Evaluation{}
		},
	}
	service, err := review.NewService(review.Deps{Evaluator: evaluator}, defaultOptions())
	require.NoError(t, err)

	code := "def average(xs):\n    return sum(xs) / len(xs)\n"
	_, err = service.ReviewCode(context.Background(), code, "", "average.py")

	require.NoError(t, err)
	assert.Equal(t, "average.py", captured.Unit.File)
	assert.Equal(t, "python", captured.Unit.Language)
	require.Len(t, captured.Unit.Hunks, 1)
	assert.Equal(t, 2, captured.Unit.Hunks[0].NewLines)
	assert.True(t, captured.Unit.ContainsLine(1))
	assert.True(t, captured.Unit.ContainsLine(2))
}

func TestService_SeedAndRedactionAppliedToPrompt(t *testing.T) {
	var captured review.EvaluateRequest
	evaluator := &fakeEvaluator{
		respond: func(req review.EvaluateRequest) review.Evaluation {
			captured = req
			return review.Evaluation{}
		},
	}
	deps := review.Deps{
		Evaluator: evaluator,
		Redactor:  upperRedactor{},
		Seed:      func(content string) int64 { return int64(len(content)) },
	}
	service, err := review.NewService(deps, defaultOptions())
	require.NoError(t, err)

	code := "secret = 1\n"
	_, err = service.ReviewCode(context.Background(), code, "python", "s.py")

	require.NoError(t, err)
	assert.Equal(t, int64(len(code)), captured.Seed)
	assert.Contains(t, captured.Prompt, "[REDACTED]")
}

type upperRedactor struct{}

func (upperRedactor) Redact(text string) string {
	return strings.ReplaceAll(text, "secret", "[REDACTED]")
}

func TestService_RequiresEvaluator(t *testing.T) {
	_, err := review.NewService(review.Deps{}, defaultOptions())
	assert.Error(t, err)
}

func TestBuildPrompt_MentionsNewFileNumbering(t *testing.T) {
	unit := review.ReviewUnit{
		ID:       "calc.py#1",
		File:     "calc.py",
		Language: "python",
		Hunks: []diff.Hunk{
			hunkOfAdded(10, 2),
		},
	}

	prompt := review.BuildPrompt(unit)

	assert.Contains(t, prompt, "python")
	assert.Contains(t, prompt, "calc.py")
	assert.Contains(t, prompt, "NEW file version")
	assert.Contains(t, prompt, `"issues"`)
	assert.Contains(t, prompt, "@@ -10,0 +10,2 @@")
}
