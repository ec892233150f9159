// Package comments converts a review report into inline pull-request
// comment structures, ready for a hosting API or for JSON output.
package comments

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

// Comment is one inline review comment anchored to a file line. Line
// numbers use new-file numbering.
type Comment struct {
	Path     string          `json:"path"`
	Line     int             `json:"line"`
	EndLine  int             `json:"endLine,omitempty"`
	Severity domain.Severity `json:"severity"`
	Body     string          `json:"body"`
}

// Summary is the top-level review comment accompanying the inline ones.
type Summary struct {
	Body string `json:"body"`
}

// FromReport builds one inline comment per issue, in report order, plus
// a summary comment.
func FromReport(report domain.ReviewReport) ([]Comment, Summary) {
	caser := cases.Title(language.English)

	result := make([]Comment, 0, len(report.Issues))
	for _, issue := range report.Issues {
		result = append(result, Comment{
			Path:     issue.File,
			Line:     issue.Line,
			EndLine:  issue.EndLine,
			Severity: issue.Severity,
			Body:     issueBody(issue, caser),
		})
	}
	return result, Summary{Body: summaryBody(report)}
}

func issueBody(issue domain.Issue, caser cases.Caser) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("**%s %s** (%s)\n\n",
		severityEmoji(issue.Severity),
		caser.String(string(issue.Type)),
		issue.Severity,
	))
	builder.WriteString(issue.Message + "\n")

	if issue.Suggestion != "" {
		builder.WriteString("\n💡 **Suggestion:** " + issue.Suggestion + "\n")
	}
	if issue.CodeSuggestion != "" {
		builder.WriteString("\n```suggestion\n" + issue.CodeSuggestion + "\n```\n")
	}
	return builder.String()
}

func summaryBody(report domain.ReviewReport) string {
	var builder strings.Builder

	builder.WriteString("## Code Review Summary\n\n")
	builder.WriteString(fmt.Sprintf("Quality score: **%.1f/10**\n\n", report.QualityScore))
	builder.WriteString(fmt.Sprintf("| Bugs | Security | Style | Suggestions |\n|---|---|---|---|\n| %d | %d | %d | %d |\n",
		report.Summary.Bugs, report.Summary.Security, report.Summary.Style, report.Summary.Suggestions))

	if len(report.PositiveFeedback) > 0 {
		builder.WriteString("\n### Highlights\n\n")
		for _, feedback := range report.PositiveFeedback {
			builder.WriteString("- " + feedback + "\n")
		}
	}
	if len(report.Diagnostics) > 0 {
		builder.WriteString("\n### Notes\n\n")
		for _, diagnostic := range report.Diagnostics {
			builder.WriteString("- " + diagnostic.Message + "\n")
		}
	}
	return builder.String()
}

func severityEmoji(severity domain.Severity) string {
	switch severity {
	case domain.SeverityCritical:
		return "🚨"
	case domain.SeverityHigh:
		return "🔴"
	case domain.SeverityMedium:
		return "⚠️"
	default:
		return "💡"
	}
}
