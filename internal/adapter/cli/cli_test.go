package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/cli"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/store/sqlite"
	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

type reviewerStub struct {
	diffText string
	code     string
	language string
	filename string
	report   domain.ReviewReport
	err      error
}

func (r *reviewerStub) ReviewDiff(ctx context.Context, diffText string) (domain.ReviewReport, error) {
	r.diffText = diffText
	return r.report, r.err
}

func (r *reviewerStub) ReviewCode(ctx context.Context, code, language, filename string) (domain.ReviewReport, error) {
	r.code = code
	r.language = language
	r.filename = filename
	return r.report, r.err
}

type gitStub struct {
	diff string
	err  error
}

func (g *gitStub) StagedDiff(ctx context.Context) (string, error) {
	return g.diff, g.err
}

func sampleReport() domain.ReviewReport {
	return domain.ReviewReport{
		Issues: []domain.Issue{domain.NewIssue(domain.IssueInput{
			Type:     domain.IssueBug,
			Severity: domain.SeverityHigh,
			File:     "calc.py",
			Line:     3,
			Message:  "division by zero when b is 0",
		})},
		Summary:      domain.Summary{Bugs: 1, Total: 1},
		QualityScore: 8,
	}
}

const sampleDiff = `diff --git a/calc.py b/calc.py
--- a/calc.py
+++ b/calc.py
@@ -1,2 +1,3 @@
 def div(a, b):
+    return a / b
 # end
`

func newRoot(stub *reviewerStub, deps cli.Dependencies) (*bytes.Buffer, *bytes.Buffer, func(args ...string) error) {
	var out, errOut bytes.Buffer
	deps.Reviewer = stub
	if deps.Args.OutWriter == nil {
		deps.Args.OutWriter = &out
	}
	if deps.Args.ErrWriter == nil {
		deps.Args.ErrWriter = &errOut
	}
	root := cli.NewRootCommand(deps)
	return &out, &errOut, func(args ...string) error {
		root.SetArgs(args)
		return root.Execute()
	}
}

func TestReviewDiffFromStdin(t *testing.T) {
	stub := &reviewerStub{report: sampleReport()}
	out, _, execute := newRoot(stub, cli.Dependencies{
		Args: cli.Arguments{InReader: strings.NewReader(sampleDiff)},
	})

	if err := execute("review", "diff"); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.diffText != sampleDiff {
		t.Fatalf("reviewer got wrong diff:\n%s", stub.diffText)
	}
	if !strings.Contains(out.String(), "division by zero when b is 0") {
		t.Fatalf("report not rendered:\n%s", out.String())
	}
}

func TestReviewDiffFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "change.diff")
	if err := os.WriteFile(path, []byte(sampleDiff), 0o644); err != nil {
		t.Fatalf("write diff: %v", err)
	}

	stub := &reviewerStub{report: sampleReport()}
	_, _, execute := newRoot(stub, cli.Dependencies{})

	if err := execute("review", "diff", path); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	if stub.diffText != sampleDiff {
		t.Fatalf("reviewer got wrong diff:\n%s", stub.diffText)
	}
}

func TestReviewDiffRejectsEmptyInput(t *testing.T) {
	stub := &reviewerStub{}
	_, _, execute := newRoot(stub, cli.Dependencies{
		Args: cli.Arguments{InReader: strings.NewReader("")},
	})

	if err := execute("review", "diff"); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestReviewDiffJSONFormat(t *testing.T) {
	stub := &reviewerStub{report: sampleReport()}
	out, _, execute := newRoot(stub, cli.Dependencies{
		Args: cli.Arguments{InReader: strings.NewReader(sampleDiff)},
	})

	if err := execute("review", "diff", "--format", "json"); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	output := out.String()
	if !strings.Contains(output, `"qualityScore": 8`) {
		t.Fatalf("JSON output missing score:\n%s", output)
	}
	if strings.Contains(output, "Code Review Results") {
		t.Fatalf("terminal rendering leaked into JSON output:\n%s", output)
	}
}

func TestReviewDiffCommentsFormat(t *testing.T) {
	stub := &reviewerStub{report: sampleReport()}
	out, _, execute := newRoot(stub, cli.Dependencies{
		Args: cli.Arguments{InReader: strings.NewReader(sampleDiff)},
	})

	if err := execute("review", "diff", "--format", "comments"); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	if !strings.Contains(out.String(), `"path": "calc.py"`) {
		t.Fatalf("comments output missing path:\n%s", out.String())
	}
}

func TestReviewDiffUnknownFormat(t *testing.T) {
	stub := &reviewerStub{report: sampleReport()}
	_, _, execute := newRoot(stub, cli.Dependencies{
		Args: cli.Arguments{InReader: strings.NewReader(sampleDiff)},
	})

	if err := execute("review", "diff", "--format", "yaml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestReviewFileReadsSourceAndLanguageFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script")
	if err := os.WriteFile(path, []byte("def f():\n    pass\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	stub := &reviewerStub{report: sampleReport()}
	_, _, execute := newRoot(stub, cli.Dependencies{})

	if err := execute("review", "file", path, "--language", "python"); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	if stub.language != "python" {
		t.Fatalf("expected language python, got %q", stub.language)
	}
	if stub.filename != "script" {
		t.Fatalf("expected filename script, got %q", stub.filename)
	}
	if !strings.Contains(stub.code, "def f():") {
		t.Fatalf("file content not passed through")
	}
}

func TestReviewStaged(t *testing.T) {
	stub := &reviewerStub{report: sampleReport()}
	_, _, execute := newRoot(stub, cli.Dependencies{
		Git: &gitStub{diff: sampleDiff},
	})

	if err := execute("review", "staged"); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	if stub.diffText != sampleDiff {
		t.Fatalf("staged diff not forwarded")
	}
}

func TestReviewStagedNothingStaged(t *testing.T) {
	stub := &reviewerStub{}
	out, _, execute := newRoot(stub, cli.Dependencies{
		Git: &gitStub{diff: ""},
	})

	if err := execute("review", "staged"); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	if !strings.Contains(out.String(), "No staged changes to review.") {
		t.Fatalf("missing empty-index message:\n%s", out.String())
	}
	if stub.diffText != "" {
		t.Fatal("reviewer should not run with nothing staged")
	}
}

func TestReviewStagedGitFailure(t *testing.T) {
	stub := &reviewerStub{}
	_, _, execute := newRoot(stub, cli.Dependencies{
		Git: &gitStub{err: errors.New("not a repository")},
	})

	if err := execute("review", "staged"); err == nil {
		t.Fatal("expected git error to propagate")
	}
}

func TestHistoryCommand(t *testing.T) {
	store, err := sqlite.NewStore(":memory:", "static")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if err := store.RecordReview(context.Background(), "input", sampleReport()); err != nil {
		t.Fatalf("record review: %v", err)
	}

	stub := &reviewerStub{}
	out, _, execute := newRoot(stub, cli.Dependencies{History: store})

	if err := execute("history"); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "static") || !strings.Contains(output, "score 8.0/10") {
		t.Fatalf("unexpected history output:\n%s", output)
	}
}

func TestHistoryCommandWithoutStore(t *testing.T) {
	stub := &reviewerStub{}
	_, _, execute := newRoot(stub, cli.Dependencies{})

	if err := execute("history"); err == nil {
		t.Fatal("expected error when store is disabled")
	}
}

func TestVersionFlag(t *testing.T) {
	stub := &reviewerStub{}
	out, _, execute := newRoot(stub, cli.Dependencies{Version: "v1.2.3"})

	err := execute("--version")
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected ErrVersionRequested, got %v", err)
	}
	if !strings.Contains(out.String(), "v1.2.3") {
		t.Fatalf("version not printed:\n%s", out.String())
	}
}

func TestRootHelpListsCommands(t *testing.T) {
	stub := &reviewerStub{}
	out, _, execute := newRoot(stub, cli.Dependencies{})

	if err := execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	for _, want := range []string{"review", "history"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("help missing %q:\n%s", want, out.String())
		}
	}
}
