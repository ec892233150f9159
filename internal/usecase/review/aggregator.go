package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

// AggregateConfig controls deduplication, filtering, and scoring.
type AggregateConfig struct {
	// SeverityThreshold drops findings below this severity.
	SeverityThreshold domain.Severity
	// MaxComments truncates the report, dropping lowest severity first.
	// Zero or negative means unlimited.
	MaxComments int
	// IncludePositive attaches provider positive feedback to the report.
	IncludePositive bool
	// DedupSimilarity is the minimum message word-overlap (Jaccard)
	// for two same-location findings to count as duplicates.
	DedupSimilarity float64
	// QualityWeights maps severity to its score penalty.
	QualityWeights map[domain.Severity]float64
}

// DefaultQualityWeights are the documented score penalties per severity.
var DefaultQualityWeights = map[domain.Severity]float64{
	domain.SeverityCritical: 3.0,
	domain.SeverityHigh:     2.0,
	domain.SeverityMedium:   1.0,
	domain.SeverityLow:      0.5,
}

// UnitResult pairs a unit with its evaluation outcome. Err is set when
// the provider call failed; the unit then contributes zero findings.
type UnitResult struct {
	Unit       ReviewUnit
	Evaluation Evaluation
	Err        error
}

// Aggregate merges per-unit findings into one report: flatten, dedupe,
// filter by severity, sort canonically, truncate, and score. It never
// fails on well-formed input; bad findings are dropped with a recorded
// diagnostic so the report is always producible.
func Aggregate(results []UnitResult, cfg AggregateConfig) domain.ReviewReport {
	var diagnostics []domain.Diagnostic
	var flat []domain.Issue
	var positive []string

	for _, result := range results {
		if result.Err != nil {
			diagnostics = append(diagnostics, domain.Diagnostic{
				Kind:    domain.DiagProviderFailure,
				Unit:    result.Unit.ID,
				Message: result.Err.Error(),
			})
			continue
		}

		for _, issue := range result.Evaluation.Issues {
			if !result.Unit.ContainsLine(issue.Line) {
				diagnostics = append(diagnostics, domain.Diagnostic{
					Kind:    domain.DiagLineOutOfRange,
					Unit:    result.Unit.ID,
					Message: fmt.Sprintf("dropped %s finding at %s:%d: line outside reviewed range", issue.Type, result.Unit.File, issue.Line),
				})
				continue
			}
			// Findings are attributed to their originating unit's file
			// regardless of what the provider claimed.
			if issue.File != result.Unit.File {
				input := domain.IssueInput{
					Type:           issue.Type,
					Severity:       issue.Severity,
					File:           result.Unit.File,
					Line:           issue.Line,
					EndLine:        issue.EndLine,
					Message:        issue.Message,
					Suggestion:     issue.Suggestion,
					CodeSuggestion: issue.CodeSuggestion,
				}
				issue = domain.NewIssue(input)
			}
			flat = append(flat, issue)
		}

		if cfg.IncludePositive {
			positive = append(positive, result.Evaluation.PositiveFeedback...)
		}
	}

	deduped := deduplicate(flat, cfg.DedupSimilarity)
	filtered := filterBySeverity(deduped, cfg.SeverityThreshold)

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})

	// Score reflects every qualifying finding, including ones the
	// comment cap hides.
	score := qualityScore(filtered, cfg.QualityWeights)

	if cfg.MaxComments > 0 && len(filtered) > cfg.MaxComments {
		dropped := len(filtered) - cfg.MaxComments
		filtered = filtered[:cfg.MaxComments]
		diagnostics = append(diagnostics, domain.Diagnostic{
			Kind:    domain.DiagTruncated,
			Message: fmt.Sprintf("dropped %d lower-severity findings over the %d comment limit", dropped, cfg.MaxComments),
		})
	}

	report := domain.ReviewReport{
		Issues:       filtered,
		Summary:      summarize(filtered),
		QualityScore: score,
		Diagnostics:  diagnostics,
	}
	if cfg.IncludePositive {
		report.PositiveFeedback = dedupStrings(positive)
	}
	return report
}

// deduplicate collapses findings that share file, line, and type when
// their messages are sufficiently similar. The survivor is the higher
// severity one; ties keep the first encountered, preserving order.
func deduplicate(issues []domain.Issue, similarity float64) []domain.Issue {
	var kept []domain.Issue

	for _, candidate := range issues {
		merged := false
		for i, existing := range kept {
			if existing.File != candidate.File ||
				existing.Line != candidate.Line ||
				existing.Type != candidate.Type {
				continue
			}
			if messageSimilarity(existing.Message, candidate.Message) < similarity {
				continue
			}
			if candidate.Severity.Rank() > existing.Severity.Rank() {
				kept[i] = candidate
			}
			merged = true
			break
		}
		if !merged {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func filterBySeverity(issues []domain.Issue, threshold domain.Severity) []domain.Issue {
	minRank := threshold.Rank()
	filtered := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.Severity.Rank() >= minRank {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

// qualityScore starts at 10 and subtracts the configured weight per
// finding, clamped to [0, 10].
func qualityScore(issues []domain.Issue, weights map[domain.Severity]float64) float64 {
	if weights == nil {
		weights = DefaultQualityWeights
	}
	score := 10.0
	for _, issue := range issues {
		score -= weights[issue.Severity]
	}
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

func summarize(issues []domain.Issue) domain.Summary {
	var summary domain.Summary
	for _, issue := range issues {
		switch issue.Type {
		case domain.IssueBug:
			summary.Bugs++
		case domain.IssueSecurity:
			summary.Security++
		case domain.IssueStyle:
			summary.Style++
		case domain.IssueSuggestion:
			summary.Suggestions++
		}
	}
	summary.Total = len(issues)
	return summary
}

// messageSimilarity computes word-level Jaccard similarity between two
// messages, case-insensitive.
func messageSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for word := range wordsA {
		if wordsB[word] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		set[strings.Trim(word, ".,;:!?()[]\"'")] = true
	}
	delete(set, "")
	return set
}

func dedupStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
