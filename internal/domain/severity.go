package domain

import "fmt"

// Severity classifies how serious an issue is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordering position of the severity (low < medium < high < critical).
// Unknown severities rank below low.
func (s Severity) Rank() int {
	if rank, ok := severityRank[s]; ok {
		return rank
	}
	return -1
}

// Valid reports whether the severity is one of the recognized values.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// ParseSeverity converts a string into a Severity, rejecting unknown values.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// IssueType classifies the nature of an issue.
type IssueType string

const (
	IssueBug        IssueType = "bug"
	IssueSecurity   IssueType = "security"
	IssueStyle      IssueType = "style"
	IssueSuggestion IssueType = "suggestion"
)

var issueTypes = map[IssueType]bool{
	IssueBug:        true,
	IssueSecurity:   true,
	IssueStyle:      true,
	IssueSuggestion: true,
}

// Valid reports whether the issue type is one of the recognized values.
func (t IssueType) Valid() bool {
	return issueTypes[t]
}

// ParseIssueType converts a string into an IssueType, rejecting unknown values.
func ParseIssueType(s string) (IssueType, error) {
	typ := IssueType(s)
	if !typ.Valid() {
		return "", fmt.Errorf("unknown issue type %q", s)
	}
	return typ, nil
}
