// Package cli wires the review pipeline into the acr command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/output/comments"
	jsonout "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/output/json"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/output/terminal"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/store/sqlite"
	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

// ErrVersionRequested indicates the user requested the CLI version and
// no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Reviewer runs reviews over diffs and whole files.
type Reviewer interface {
	ReviewDiff(ctx context.Context, diffText string) (domain.ReviewReport, error)
	ReviewCode(ctx context.Context, code, language, filename string) (domain.ReviewReport, error)
}

// DiffSource extracts diffs from a repository.
type DiffSource interface {
	StagedDiff(ctx context.Context) (string, error)
}

// HistoryLister reads recorded runs back out of the store.
type HistoryLister interface {
	ListRuns(ctx context.Context, limit int) ([]sqlite.Run, error)
	RunIssues(ctx context.Context, runID int64) ([]domain.Issue, error)
}

// Arguments encapsulates IO streams injected from the host process.
type Arguments struct {
	InReader  io.Reader
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Reviewer      Reviewer
	Git           DiffSource
	History       HistoryLister
	Args          Arguments
	DefaultFormat string
	ColorMode     string
	Version       string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "acr",
		Short: "AI code review CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	inReader := deps.Args.InReader
	if inReader == nil {
		inReader = os.Stdin
	}
	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetIn(inReader)
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	defaultFormat := deps.DefaultFormat
	if defaultFormat == "" {
		defaultFormat = "terminal"
	}

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Run a code review",
	}
	reviewCmd.AddCommand(diffCommand(deps.Reviewer, defaultFormat, deps.ColorMode))
	reviewCmd.AddCommand(fileCommand(deps.Reviewer, defaultFormat, deps.ColorMode))
	reviewCmd.AddCommand(stagedCommand(deps.Reviewer, deps.Git, defaultFormat, deps.ColorMode))
	root.AddCommand(reviewCmd)
	root.AddCommand(historyCommand(deps.History))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func diffCommand(reviewer Reviewer, defaultFormat, colorMode string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "diff [file]",
		Short: "Review a unified diff from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diffText, err := readDiffInput(cmd, args)
			if err != nil {
				return err
			}
			if diffText == "" {
				return fmt.Errorf("empty diff input")
			}

			report, err := reviewer.ReviewDiff(cmd.Context(), diffText)
			if err != nil {
				return err
			}
			return writeReport(cmd, report, format, colorMode)
		},
	}

	cmd.Flags().StringVar(&format, "format", defaultFormat, "Output format: terminal, json, or comments")
	return cmd
}

func fileCommand(reviewer Reviewer, defaultFormat, colorMode string) *cobra.Command {
	var format string
	var language string

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Review a whole source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			report, err := reviewer.ReviewCode(cmd.Context(), string(content), language, filepath.Base(path))
			if err != nil {
				return err
			}
			return writeReport(cmd, report, format, colorMode)
		},
	}

	cmd.Flags().StringVar(&format, "format", defaultFormat, "Output format: terminal, json, or comments")
	cmd.Flags().StringVar(&language, "language", "", "Language hint (detected from the extension when empty)")
	return cmd
}

func stagedCommand(reviewer Reviewer, git DiffSource, defaultFormat, colorMode string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "staged",
		Short: "Review the staged changes in the current repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if git == nil {
				return fmt.Errorf("no repository configured")
			}
			diffText, err := git.StagedDiff(cmd.Context())
			if err != nil {
				return err
			}
			if diffText == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No staged changes to review.")
				return nil
			}

			report, err := reviewer.ReviewDiff(cmd.Context(), diffText)
			if err != nil {
				return err
			}
			return writeReport(cmd, report, format, colorMode)
		},
	}

	cmd.Flags().StringVar(&format, "format", defaultFormat, "Output format: terminal, json, or comments")
	return cmd
}

func historyCommand(history HistoryLister) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded review runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if history == nil {
				return fmt.Errorf("review history store is not enabled")
			}

			runs, err := history.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No recorded reviews.")
				return nil
			}
			for _, run := range runs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "#%d  %s  %s  score %.1f/10  %d issues\n",
					run.ID, run.CreatedAt.Format(time.RFC3339), run.Provider, run.QualityScore, run.TotalIssues)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to list")
	return cmd
}

func readDiffInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(content), nil
	}

	content, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(content), nil
}

func writeReport(cmd *cobra.Command, report domain.ReviewReport, format, colorMode string) error {
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		return jsonout.NewWriter(out, func() string {
			return time.Now().UTC().Format(time.RFC3339)
		}).Write(report)
	case "comments":
		inline, summary := comments.FromReport(report)
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Comments []comments.Comment `json:"comments"`
			Summary  comments.Summary   `json:"summary"`
		}{Comments: inline, Summary: summary})
	case "terminal":
		return terminal.NewWriter(out, useColor(out, colorMode)).Write(report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func useColor(out io.Writer, colorMode string) bool {
	switch colorMode {
	case "always":
		return true
	case "never":
		return false
	default:
		if f, ok := out.(*os.File); ok {
			return terminal.DetectColor(f)
		}
		return false
	}
}
