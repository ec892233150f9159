package review

import (
	"github.com/ssivitskiy/ai-code-reviewer/internal/diff"
)

// ReviewUnit is the bounded chunk of diff content sent to the evaluator
// in one call. Units are request-scoped: they exist only within one
// review invocation.
type ReviewUnit struct {
	ID              string
	File            string
	Language        string
	Hunks           []diff.Hunk
	EstimatedTokens int
}

// ChangedLines returns the total added plus removed lines across the
// unit's hunks.
func (u ReviewUnit) ChangedLines() int {
	n := 0
	for _, hunk := range u.Hunks {
		n += hunk.ChangedLines()
	}
	return n
}

// ContainsLine reports whether the given new-file line number falls
// inside one of the unit's hunks. Findings outside this range are
// dropped during aggregation.
func (u ReviewUnit) ContainsLine(line int) bool {
	for _, hunk := range u.Hunks {
		if line >= hunk.NewStart && line < hunk.NewStart+hunk.NewLines {
			return true
		}
	}
	return false
}
