package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Issue represents a single finding reported by an evaluation provider.
// Line numbers use new-file numbering. Immutable once created.
type Issue struct {
	ID             string    `json:"id"`
	Type           IssueType `json:"type"`
	Severity       Severity  `json:"severity"`
	File           string    `json:"file"`
	Line           int       `json:"line"`
	EndLine        int       `json:"endLine,omitempty"`
	Message        string    `json:"message"`
	Suggestion     string    `json:"suggestion,omitempty"`
	CodeSuggestion string    `json:"codeSuggestion,omitempty"`
}

// IssueInput captures the information required to create an Issue.
type IssueInput struct {
	Type           IssueType
	Severity       Severity
	File           string
	Line           int
	EndLine        int
	Message        string
	Suggestion     string
	CodeSuggestion string
}

// NewIssue constructs an Issue with a deterministic ID.
func NewIssue(input IssueInput) Issue {
	id := hashIssue(input)
	return Issue{
		ID:             id,
		Type:           input.Type,
		Severity:       input.Severity,
		File:           input.File,
		Line:           input.Line,
		EndLine:        input.EndLine,
		Message:        input.Message,
		Suggestion:     input.Suggestion,
		CodeSuggestion: input.CodeSuggestion,
	}
}

func hashIssue(input IssueInput) string {
	payload := fmt.Sprintf("%s|%s|%s|%d|%d|%s",
		input.Type,
		input.Severity,
		input.File,
		input.Line,
		input.EndLine,
		input.Message,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Diagnostic kinds recorded on a report.
const (
	DiagProviderFailure = "provider_failure"
	DiagLineOutOfRange  = "line_out_of_range"
	DiagTruncated       = "truncated"
)

// Diagnostic records a unit that failed or a finding that was dropped,
// so callers can distinguish "no issues found" from "could not review".
type Diagnostic struct {
	Kind    string `json:"kind"`
	Unit    string `json:"unit,omitempty"`
	Message string `json:"message"`
}

// Summary holds per-type issue counts for a report.
type Summary struct {
	Bugs        int `json:"bugs"`
	Security    int `json:"security"`
	Style       int `json:"style"`
	Suggestions int `json:"suggestions"`
	Total       int `json:"total"`
}

// ReviewReport is the aggregated output of one review invocation.
// It is not mutated after aggregation completes.
type ReviewReport struct {
	Issues           []Issue      `json:"issues"`
	Summary          Summary      `json:"summary"`
	QualityScore     float64      `json:"qualityScore"`
	PositiveFeedback []string     `json:"positiveFeedback,omitempty"`
	Diagnostics      []Diagnostic `json:"diagnostics,omitempty"`
}

// ProviderError indicates an evaluation call failed or returned an
// unparseable response. It degrades the unit to zero findings; it never
// aborts the invocation.
type ProviderError struct {
	Provider string
	Unit     string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("provider %s failed on unit %s: %v", e.Provider, e.Unit, e.Err)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
