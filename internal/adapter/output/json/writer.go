// Package json renders review reports as machine-readable JSON.
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

// envelope is the stable on-the-wire shape. The report field set does
// not change between releases without a version bump.
type envelope struct {
	Version     string              `json:"version"`
	GeneratedAt string              `json:"generatedAt"`
	Report      domain.ReviewReport `json:"report"`
}

const schemaVersion = "1"

// Writer encodes reports as indented JSON.
type Writer struct {
	out io.Writer
	now func() string
}

// NewWriter creates a JSON writer with a timestamp supplier, so tests
// can pin generatedAt.
func NewWriter(out io.Writer, now func() string) *Writer {
	return &Writer{out: out, now: now}
}

// Write encodes the report to the underlying writer.
func (w *Writer) Write(report domain.ReviewReport) error {
	encoder := json.NewEncoder(w.out)
	encoder.SetIndent("", "  ")

	payload := envelope{
		Version:     schemaVersion,
		GeneratedAt: w.now(),
		Report:      report,
	}
	if err := encoder.Encode(payload); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
