package review

import (
	"fmt"
	"strings"

	"github.com/ssivitskiy/ai-code-reviewer/internal/diff"
)

// TokenEstimator estimates the token cost of a prompt fragment.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// BuilderConfig controls how parsed files are grouped into review units.
type BuilderConfig struct {
	// UnitSizeThreshold is the maximum changed lines per unit. Files
	// exceeding it are split into multiple units preserving hunk order.
	UnitSizeThreshold int
	// ContextLines is the number of unchanged lines kept on each side
	// of a hunk's changed lines.
	ContextLines int
}

// BuildUnits produces review units from parsed file diffs: one unit per
// file, split when the file's changed lines exceed the size threshold.
// Files without hunks (binary, pure renames) are skipped. The estimator
// is optional.
func BuildUnits(files []diff.FileDiff, cfg BuilderConfig, estimator TokenEstimator) []ReviewUnit {
	var units []ReviewUnit

	for _, file := range files {
		if len(file.Hunks) == 0 {
			continue
		}

		trimmed := make([]diff.Hunk, 0, len(file.Hunks))
		for _, hunk := range file.Hunks {
			trimmed = append(trimmed, trimContext(hunk, cfg.ContextLines))
		}

		groups := splitByChangedLines(trimmed, cfg.UnitSizeThreshold)

		language := LanguageForPath(file.Path)
		if language == "" {
			language = DetectLanguage(changedContent(trimmed))
		}

		for i, group := range groups {
			unit := ReviewUnit{
				ID:       fmt.Sprintf("%s#%d", file.Path, i+1),
				File:     file.Path,
				Language: language,
				Hunks:    group,
			}
			if estimator != nil {
				unit.EstimatedTokens = estimator.EstimateTokens(renderHunks(group))
			}
			units = append(units, unit)
		}
	}

	return units
}

// splitByChangedLines groups hunks so no group exceeds the threshold by
// total changed lines, preserving order. A single hunk larger than the
// threshold forms its own group. threshold <= 0 disables splitting.
func splitByChangedLines(hunks []diff.Hunk, threshold int) [][]diff.Hunk {
	if threshold <= 0 {
		return [][]diff.Hunk{hunks}
	}

	var groups [][]diff.Hunk
	var current []diff.Hunk
	size := 0

	for _, hunk := range hunks {
		changed := hunk.ChangedLines()
		if len(current) > 0 && size+changed > threshold {
			groups = append(groups, current)
			current = nil
			size = 0
		}
		current = append(current, hunk)
		size += changed
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// trimContext drops leading and trailing context lines beyond n from
// each side of the hunk's changed region, adjusting the header ranges
// so line accounting stays exact.
func trimContext(hunk diff.Hunk, n int) diff.Hunk {
	if n < 0 {
		return hunk
	}

	first, last := -1, -1
	for i, line := range hunk.Lines {
		if line.Kind != diff.LineContext {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return hunk
	}

	start := first - n
	if start < 0 {
		start = 0
	}
	end := last + n + 1
	if end > len(hunk.Lines) {
		end = len(hunk.Lines)
	}
	if start == 0 && end == len(hunk.Lines) {
		return hunk
	}

	// Everything outside [first, last] is context, which consumes one
	// line on both sides of the accounting.
	leading := start
	trailing := len(hunk.Lines) - end

	return diff.Hunk{
		OldStart: hunk.OldStart + leading,
		NewStart: hunk.NewStart + leading,
		OldLines: hunk.OldLines - leading - trailing,
		NewLines: hunk.NewLines - leading - trailing,
		Lines:    hunk.Lines[start:end],
	}
}

// changedContent concatenates the added lines, used for content-based
// language detection when the extension is unknown.
func changedContent(hunks []diff.Hunk) string {
	var sb strings.Builder
	for _, hunk := range hunks {
		for _, line := range hunk.Lines {
			if line.Kind == diff.LineAdded {
				sb.WriteString(line.Content)
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
