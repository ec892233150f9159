package review

import (
	"fmt"
	"strings"

	"github.com/ssivitskiy/ai-code-reviewer/internal/diff"
)

// responseSchema documents the JSON shape providers must return.
// Unknown type or severity values are rejected during decoding.
const responseSchema = `{
  "issues": [
    {
      "type": "bug|security|style|suggestion",
      "severity": "low|medium|high|critical",
      "line": <new-file line number>,
      "end_line": <optional last line of the range>,
      "message": "<what is wrong and why it matters>",
      "suggestion": "<optional short fix description>",
      "code_suggestion": "<optional replacement code>"
    }
  ],
  "positive_feedback": ["<optional things done well>"],
  "summary": "<one or two sentences>"
}`

// BuildPrompt renders the evaluation prompt for one unit.
func BuildPrompt(unit ReviewUnit) string {
	var builder strings.Builder

	if unit.Language != "" {
		builder.WriteString(fmt.Sprintf("You are an expert %s code reviewer.\n", unit.Language))
	} else {
		builder.WriteString("You are an expert code reviewer.\n")
	}
	builder.WriteString("Review the following diff and report genuine problems: bugs, security issues, style problems, and improvement suggestions.\n")
	builder.WriteString("Report line numbers from the NEW file version.\n")
	builder.WriteString("Only report issues on lines shown in the diff.\n\n")

	builder.WriteString(fmt.Sprintf("File: %s\n", unit.File))
	builder.WriteString(renderHunks(unit.Hunks))

	builder.WriteString("\nRespond with JSON only, matching this schema exactly:\n")
	builder.WriteString(responseSchema)
	builder.WriteString("\n")

	return builder.String()
}

// renderHunks writes hunks back out in unified form with new-file line
// numbers in the margin, so providers can anchor findings precisely.
func renderHunks(hunks []diff.Hunk) string {
	var builder strings.Builder
	for _, hunk := range hunks {
		builder.WriteString(fmt.Sprintf("@@ -%d,%d +%d,%d @@\n",
			hunk.OldStart, hunk.OldLines, hunk.NewStart, hunk.NewLines))
		for _, line := range hunk.Lines {
			switch line.Kind {
			case diff.LineAdded:
				builder.WriteString(fmt.Sprintf("%5d + %s\n", *line.NewLine, line.Content))
			case diff.LineRemoved:
				builder.WriteString(fmt.Sprintf("      - %s\n", line.Content))
			default:
				builder.WriteString(fmt.Sprintf("%5d   %s\n", *line.NewLine, line.Content))
			}
		}
	}
	return builder.String()
}
