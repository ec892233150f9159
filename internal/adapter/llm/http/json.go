package http

import (
	"regexp"
	"strings"
)

// Greedy to the last closing fence so code examples nested inside the
// JSON (suggestion fields containing ``` blocks) stay intact.
var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*)```")

// StripCodeFence extracts the body of a markdown code fence, returning
// the trimmed original text when no fence is present. Models often wrap
// their JSON answers in ```json fences despite instructions.
func StripCodeFence(text string) string {
	if m := jsonFenceRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
