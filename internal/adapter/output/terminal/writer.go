// Package terminal renders review reports for interactive use, with
// ANSI colors and severity markers when the destination is a TTY.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

const (
	ansiReset   = "\033[0m"
	ansiBlue    = "\033[94m"
	ansiYellow  = "\033[93m"
	ansiRed     = "\033[91m"
	ansiMagenta = "\033[95m"

	rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
)

// Writer renders reports as human-readable terminal text.
type Writer struct {
	out   io.Writer
	color bool
	caser cases.Caser
}

// NewWriter creates a terminal writer. Colors and severity markers are
// emitted only when color is true.
func NewWriter(out io.Writer, color bool) *Writer {
	return &Writer{out: out, color: color, caser: cases.Title(language.English)}
}

// DetectColor reports whether f is an interactive terminal, which is
// the default condition for colored output.
func DetectColor(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Write renders the report to the writer.
func (w *Writer) Write(report domain.ReviewReport) error {
	var builder strings.Builder

	builder.WriteString(w.mark("🔍 ") + "Code Review Results\n")
	builder.WriteString(rule + "\n\n")

	if len(report.Issues) == 0 {
		builder.WriteString(w.mark("✅ ") + "No issues found! Great code!\n\n")
	}
	for _, issue := range report.Issues {
		w.writeIssue(&builder, issue)
		builder.WriteString("\n")
	}

	if len(report.PositiveFeedback) > 0 {
		builder.WriteString(w.mark("✨ ") + "Positive Feedback:\n")
		for _, feedback := range report.PositiveFeedback {
			builder.WriteString("   • " + feedback + "\n")
		}
		builder.WriteString("\n")
	}

	for _, diagnostic := range report.Diagnostics {
		builder.WriteString(w.mark("⚠️  ") + "Note: " + diagnostic.Message + "\n")
	}
	if len(report.Diagnostics) > 0 {
		builder.WriteString("\n")
	}

	builder.WriteString(rule + "\n")
	builder.WriteString(fmt.Sprintf("Summary: %d bugs, %d security, %d style | Quality Score: %.1f/10\n",
		report.Summary.Bugs, report.Summary.Security, report.Summary.Style, report.QualityScore))

	_, err := io.WriteString(w.out, builder.String())
	return err
}

func (w *Writer) writeIssue(builder *strings.Builder, issue domain.Issue) {
	header := fmt.Sprintf("%s%s %s:%s (%s)",
		w.mark(severityEmoji(issue.Severity)+" "),
		strings.ToUpper(string(issue.Type)),
		issue.File,
		lineRange(issue),
		w.caser.String(string(issue.Severity)),
	)

	if w.color {
		builder.WriteString(severityColor(issue.Severity) + header + ansiReset + "\n")
	} else {
		builder.WriteString(header + "\n")
	}
	builder.WriteString("   " + issue.Message + "\n")

	if issue.Suggestion != "" {
		builder.WriteString("   " + w.mark("💡 ") + "Suggestion: " + issue.Suggestion + "\n")
	}
	if issue.CodeSuggestion != "" {
		builder.WriteString("   ```\n")
		for _, line := range strings.Split(issue.CodeSuggestion, "\n") {
			builder.WriteString("   " + line + "\n")
		}
		builder.WriteString("   ```\n")
	}
}

// mark returns the marker only in color mode; plain output stays
// ASCII-safe for piping.
func (w *Writer) mark(marker string) string {
	if w.color {
		return marker
	}
	return ""
}

func lineRange(issue domain.Issue) string {
	if issue.EndLine > issue.Line {
		return fmt.Sprintf("%d-%d", issue.Line, issue.EndLine)
	}
	return fmt.Sprintf("%d", issue.Line)
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

func severityColor(severity domain.Severity) string {
	switch severity {
	case domain.SeverityCritical:
		return ansiMagenta
	case domain.SeverityHigh:
		return ansiRed
	case domain.SeverityMedium:
		return ansiYellow
	default:
		return ansiBlue
	}
}
