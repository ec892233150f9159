package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ssivitskiy/ai-code-reviewer/internal/diff"
	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

// Redactor removes secrets from prompt text before it leaves the process.
type Redactor interface {
	Redact(text string) string
}

// Recorder persists completed reports. Optional; failures are logged,
// never surfaced to the caller.
type Recorder interface {
	RecordReview(ctx context.Context, input string, report domain.ReviewReport) error
}

// Options configures one review service instance. Validation happens in
// the config package before a service is constructed.
type Options struct {
	UnitSizeThreshold int
	ContextLines      int
	ConcurrencyLimit  int
	PerCallTimeout    time.Duration
	MaxTokens         int
	Aggregation       AggregateConfig
}

// Deps carries the service's collaborators. Evaluator is required; the
// rest are optional.
type Deps struct {
	Evaluator Evaluator
	Estimator TokenEstimator
	Redactor  Redactor
	Recorder  Recorder
	Logger    Logger
	// Seed derives a deterministic per-invocation seed from the input
	// content, forwarded to providers that support seeding.
	Seed func(content string) int64
}

// Service runs the review pipeline: parse, build units, evaluate
// concurrently, aggregate.
type Service struct {
	deps Deps
	opts Options
}

// NewService constructs a review service.
func NewService(deps Deps, opts Options) (*Service, error) {
	if deps.Evaluator == nil {
		return nil, errors.New("review: evaluator is required")
	}
	if opts.ConcurrencyLimit <= 0 {
		opts.ConcurrencyLimit = 1
	}
	return &Service{deps: deps, opts: opts}, nil
}

// ReviewDiff reviews a unified diff. Malformed diffs fail fast, before
// any evaluation calls are issued.
func (s *Service) ReviewDiff(ctx context.Context, diffText string) (domain.ReviewReport, error) {
	files, err := diff.Parse(diffText)
	if err != nil {
		return domain.ReviewReport{}, fmt.Errorf("parsing diff: %w", err)
	}

	units := BuildUnits(files, BuilderConfig{
		UnitSizeThreshold: s.opts.UnitSizeThreshold,
		ContextLines:      s.opts.ContextLines,
	}, s.deps.Estimator)

	report := s.evaluateAll(ctx, units, diffText)
	s.record(ctx, diffText, report)
	return report, nil
}

// ReviewCode reviews a standalone snippet by wrapping it as a synthetic
// whole-file diff of added lines. Language may be empty; it is then
// inferred from the filename or the content.
func (s *Service) ReviewCode(ctx context.Context, code, language, filename string) (domain.ReviewReport, error) {
	if filename == "" {
		filename = "snippet"
	}
	if language == "" {
		language = LanguageForPath(filename)
	}
	if language == "" {
		language = DetectLanguage(code)
	}

	unit := syntheticUnit(code, language, filename)
	report := s.evaluateAll(ctx, []ReviewUnit{unit}, code)
	s.record(ctx, code, report)
	return report, nil
}

// evaluateAll runs units through the evaluator with bounded concurrency
// and aggregates the outcomes. Cancellation stops new calls from
// starting; completed results are still aggregated.
func (s *Service) evaluateAll(ctx context.Context, units []ReviewUnit, seedContent string) domain.ReviewReport {
	if len(units) == 0 {
		return Aggregate(nil, s.opts.Aggregation)
	}

	var seed int64
	if s.deps.Seed != nil {
		seed = s.deps.Seed(seedContent)
	}

	sem := semaphore.NewWeighted(int64(s.opts.ConcurrencyLimit))
	results := make([]UnitResult, len(units))
	var wg sync.WaitGroup

	for i, unit := range units {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled before this unit started.
			results[i] = UnitResult{Unit: unit, Err: &domain.ProviderError{
				Provider: s.deps.Evaluator.Name(),
				Unit:     unit.ID,
				Err:      fmt.Errorf("evaluation not started: %w", err),
			}}
			continue
		}

		wg.Add(1)
		go func(i int, unit ReviewUnit) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = s.evaluateUnit(ctx, unit, seed)
		}(i, unit)
	}

	wg.Wait()
	return Aggregate(results, s.opts.Aggregation)
}

func (s *Service) evaluateUnit(ctx context.Context, unit ReviewUnit, seed int64) UnitResult {
	prompt := BuildPrompt(unit)
	if s.deps.Redactor != nil {
		prompt = s.deps.Redactor.Redact(prompt)
	}

	callCtx := ctx
	if s.opts.PerCallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.PerCallTimeout)
		defer cancel()
	}

	s.logInfo(ctx, "evaluating unit", map[string]interface{}{
		"unit":            unit.ID,
		"language":        unit.Language,
		"changedLines":    unit.ChangedLines(),
		"estimatedTokens": unit.EstimatedTokens,
	})

	evaluation, err := s.deps.Evaluator.Evaluate(callCtx, EvaluateRequest{
		Unit:      unit,
		Prompt:    prompt,
		Seed:      seed,
		MaxTokens: s.opts.MaxTokens,
	})
	if err != nil {
		var provider *domain.ProviderError
		if !errors.As(err, &provider) {
			// Timeouts and transport surprises degrade the unit the
			// same way as any provider failure.
			err = &domain.ProviderError{Provider: s.deps.Evaluator.Name(), Unit: unit.ID, Err: err}
		}
		s.logWarning(ctx, "unit evaluation failed", map[string]interface{}{
			"unit":  unit.ID,
			"error": err.Error(),
		})
		return UnitResult{Unit: unit, Err: err}
	}

	return UnitResult{Unit: unit, Evaluation: evaluation}
}

func (s *Service) record(ctx context.Context, input string, report domain.ReviewReport) {
	if s.deps.Recorder == nil {
		return
	}
	if err := s.deps.Recorder.RecordReview(ctx, input, report); err != nil {
		s.logWarning(ctx, "failed to persist review", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (s *Service) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if s.deps.Logger != nil {
		s.deps.Logger.LogWarning(ctx, message, fields)
	}
}

// syntheticUnit wraps a snippet as a single hunk of added lines so the
// rest of the pipeline treats it like a new file.
func syntheticUnit(code, language, filename string) ReviewUnit {
	content := strings.TrimSuffix(code, "\n")
	var lines []diff.Line
	if content != "" {
		for i, text := range strings.Split(content, "\n") {
			n := i + 1
			lines = append(lines, diff.Line{Kind: diff.LineAdded, Content: text, NewLine: &n})
		}
	}

	hunk := diff.Hunk{OldStart: 0, OldLines: 0, NewStart: 1, NewLines: len(lines), Lines: lines}
	return ReviewUnit{
		ID:       filename + "#1",
		File:     filename,
		Language: language,
		Hunks:    []diff.Hunk{hunk},
	}
}
