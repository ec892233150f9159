package review

import (
	"path/filepath"
	"strings"
)

var languageByExtension = map[string]string{
	".py":  "python",
	".js":  "javascript",
	".jsx": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
	".go":  "go",
	".rs":  "rust",
	".java": "java",
}

// LanguageForPath infers the language from the file extension.
// Unknown extensions return the empty string, which routes the unit to
// the generic-rules prompt.
func LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return languageByExtension[ext]
}

type contentPattern struct {
	language string
	markers  []string
}

// Ordered so that more distinctive markers win: "package main" before
// the looser javascript patterns.
var contentPatterns = []contentPattern{
	{language: "go", markers: []string{"package ", "func ", ":="}},
	{language: "rust", markers: []string{"fn ", "let mut ", "impl "}},
	{language: "python", markers: []string{"def ", "elif ", "import "}},
	{language: "java", markers: []string{"public class ", "private ", "void "}},
	{language: "typescript", markers: []string{"interface ", ": string", ": number"}},
	{language: "javascript", markers: []string{"function ", "=> {", "const "}},
}

// DetectLanguage makes a best-effort guess from content when the
// extension gives no answer. Requires at least two markers to match so
// a stray keyword does not misclassify. Returns "" when unsure.
func DetectLanguage(content string) string {
	for _, pattern := range contentPatterns {
		hits := 0
		for _, marker := range pattern.markers {
			if strings.Contains(content, marker) {
				hits++
			}
		}
		if hits >= 2 {
			return pattern.language
		}
	}
	return ""
}
