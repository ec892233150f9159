package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LineKind represents the type of a line in a diff hunk.
type LineKind int

const (
	// LineContext is an unchanged line (starts with ' ').
	LineContext LineKind = iota
	// LineAdded is an added line (starts with '+').
	LineAdded
	// LineRemoved is a removed line (starts with '-').
	LineRemoved
)

// Line is a single line in a hunk. OldLine is nil for additions and
// NewLine is nil for removals.
type Line struct {
	Kind    LineKind
	Content string
	OldLine *int
	NewLine *int
}

// Hunk is one @@ block of a unified diff.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// ChangedLines returns the number of added plus removed lines in the hunk.
func (h Hunk) ChangedLines() int {
	n := 0
	for _, line := range h.Lines {
		if line.Kind != LineContext {
			n++
		}
	}
	return n
}

// FileDiff holds the hunks for a single file. Path is the new-side path
// (the old-side path for deletions).
type FileDiff struct {
	Path    string
	OldPath string
	Binary  bool
	Hunks   []Hunk
}

// MalformedDiffError indicates the diff text could not be parsed into
// well-formed hunks. It is fatal to the review invocation and is raised
// before any evaluation calls are issued.
type MalformedDiffError struct {
	LineNumber int
	Reason     string
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed diff at line %d: %s", e.LineNumber, e.Reason)
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse parses unified diff text (possibly multi-file) into an ordered
// list of FileDiff values, preserving the order of first appearance.
//
// The body of each hunk is verified against its @@ header: the old-side
// count must equal the number of context plus removed lines and the
// new-side count must equal the number of context plus added lines. Any
// mismatch, a header that cannot be parsed, a hunk with zero changed
// lines, or a text file header without hunks produces a
// *MalformedDiffError.
func Parse(diffText string) ([]FileDiff, error) {
	lines := strings.Split(diffText, "\n")

	var files []FileDiff
	var current *FileDiff
	sawTextHeader := false

	flush := func(lineNo int) error {
		if current == nil {
			return nil
		}
		if len(current.Hunks) == 0 && sawTextHeader {
			return &MalformedDiffError{
				LineNumber: lineNo,
				Reason:     fmt.Sprintf("file %s declares content changes but has no hunks", current.Path),
			}
		}
		files = append(files, *current)
		current = nil
		sawTextHeader = false
		return nil
	}

	i := 0
	for i < len(lines) {
		line := lines[i]

		switch {
		case line == "" && i == len(lines)-1:
			// Trailing newline from the split.
			i++

		case strings.HasPrefix(line, "diff --git "):
			if err := flush(i + 1); err != nil {
				return nil, err
			}
			oldPath, newPath := parseGitHeader(line)
			current = &FileDiff{Path: newPath, OldPath: oldPath}
			i++

		case strings.HasPrefix(line, "--- "):
			if current == nil {
				current = &FileDiff{}
			}
			if p, ok := strippedPath(line[4:], "a/"); ok {
				current.OldPath = p
				if current.Path == "" {
					current.Path = p
				}
			}
			sawTextHeader = true
			i++

		case strings.HasPrefix(line, "+++ "):
			if current == nil {
				current = &FileDiff{}
			}
			if p, ok := strippedPath(line[4:], "b/"); ok {
				current.Path = p
			} else if current.Path == "" {
				// New side is /dev/null (deletion): keep the old path.
				current.Path = current.OldPath
			}
			sawTextHeader = true
			i++

		case strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch"):
			if current == nil {
				current = &FileDiff{}
			}
			current.Binary = true
			sawTextHeader = false
			i++

		case strings.HasPrefix(line, "@@"):
			if current == nil {
				return nil, &MalformedDiffError{LineNumber: i + 1, Reason: "hunk header before any file header"}
			}
			hunk, next, err := parseHunk(lines, i)
			if err != nil {
				return nil, err
			}
			current.Hunks = append(current.Hunks, hunk)
			sawTextHeader = false
			i = next

		default:
			if len(line) > 0 {
				switch line[0] {
				case '+', '-', ' ', '\\':
					// Hunk-style content that the preceding header did
					// not account for.
					return nil, &MalformedDiffError{LineNumber: i + 1, Reason: "diff content outside any hunk"}
				}
			}
			// Extended header lines: index, mode changes, rename/copy
			// markers, similarity scores. None affect hunk accounting.
			i++
		}
	}

	if err := flush(len(lines)); err != nil {
		return nil, err
	}
	return files, nil
}

// parseHunk parses the hunk starting at lines[start] and returns the
// hunk plus the index of the first line after its body.
func parseHunk(lines []string, start int) (Hunk, int, error) {
	header := lines[start]
	m := hunkHeaderRe.FindStringSubmatch(header)
	if m == nil {
		return Hunk{}, 0, &MalformedDiffError{LineNumber: start + 1, Reason: fmt.Sprintf("unparseable hunk header %q", header)}
	}

	hunk := Hunk{
		OldStart: mustAtoi(m[1]),
		OldLines: countOrOne(m[2]),
		NewStart: mustAtoi(m[3]),
		NewLines: countOrOne(m[4]),
	}

	oldRemaining := hunk.OldLines
	newRemaining := hunk.NewLines
	oldNo := hunk.OldStart
	newNo := hunk.NewStart

	i := start + 1
	for i < len(lines) && (oldRemaining > 0 || newRemaining > 0) {
		line := lines[i]

		if strings.HasPrefix(line, `\`) {
			// "\ No newline at end of file" is not counted.
			i++
			continue
		}
		if line == "" && i == len(lines)-1 {
			break
		}

		var parsed Line
		marker := byte(' ')
		content := line
		if len(line) > 0 {
			marker = line[0]
			content = line[1:]
		}

		switch marker {
		case ' ':
			if oldRemaining <= 0 || newRemaining <= 0 {
				return Hunk{}, 0, accountingError(start, hunk)
			}
			parsed = Line{Kind: LineContext, Content: content, OldLine: intPtr(oldNo), NewLine: intPtr(newNo)}
			oldNo++
			newNo++
			oldRemaining--
			newRemaining--
		case '+':
			if newRemaining <= 0 {
				return Hunk{}, 0, accountingError(start, hunk)
			}
			parsed = Line{Kind: LineAdded, Content: content, NewLine: intPtr(newNo)}
			newNo++
			newRemaining--
		case '-':
			if oldRemaining <= 0 {
				return Hunk{}, 0, accountingError(start, hunk)
			}
			parsed = Line{Kind: LineRemoved, Content: content, OldLine: intPtr(oldNo)}
			oldNo++
			oldRemaining--
		default:
			return Hunk{}, 0, &MalformedDiffError{
				LineNumber: i + 1,
				Reason:     fmt.Sprintf("unexpected line marker %q inside hunk", string(marker)),
			}
		}

		hunk.Lines = append(hunk.Lines, parsed)
		i++
	}

	if oldRemaining != 0 || newRemaining != 0 {
		return Hunk{}, 0, accountingError(start, hunk)
	}
	if hunk.ChangedLines() == 0 {
		return Hunk{}, 0, &MalformedDiffError{LineNumber: start + 1, Reason: "hunk contains no added or removed lines"}
	}

	// Trailing "\ No newline" after the last counted line belongs to
	// this hunk.
	for i < len(lines) && strings.HasPrefix(lines[i], `\`) {
		i++
	}

	return hunk, i, nil
}

func accountingError(headerIdx int, hunk Hunk) error {
	return &MalformedDiffError{
		LineNumber: headerIdx + 1,
		Reason: fmt.Sprintf("hunk body does not match header -%d,%d +%d,%d",
			hunk.OldStart, hunk.OldLines, hunk.NewStart, hunk.NewLines),
	}
}

// parseGitHeader extracts old and new paths from a "diff --git a/x b/y" line.
func parseGitHeader(line string) (oldPath, newPath string) {
	rest := strings.TrimPrefix(line, "diff --git ")
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return "", ""
	}
	oldPath = strings.TrimPrefix(fields[0], "a/")
	newPath = strings.TrimPrefix(fields[1], "b/")
	return oldPath, newPath
}

// strippedPath removes the git prefix from a ---/+++ header path.
// Returns ok=false for /dev/null.
func strippedPath(s, prefix string) (string, bool) {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\t'); idx >= 0 {
		s = s[:idx]
	}
	if s == "/dev/null" {
		return "", false
	}
	return strings.TrimPrefix(s, prefix), true
}

func countOrOne(s string) int {
	if s == "" {
		return 1
	}
	return mustAtoi(s)
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func intPtr(n int) *int {
	return &n
}
