package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/cli"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/git"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/anthropic"
	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/ollama"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/openai"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/static"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/observability"
	"github.com/ssivitskiy/ai-code-reviewer/internal/adapter/store/sqlite"
	"github.com/ssivitskiy/ai-code-reviewer/internal/config"
	"github.com/ssivitskiy/ai-code-reviewer/internal/determinism"
	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
	"github.com/ssivitskiy/ai-code-reviewer/internal/redaction"
	"github.com/ssivitskiy/ai-code-reviewer/internal/usecase/review"
)

// Overridden at build time via -ldflags "-X main.version=...".
var version = "v0.0.0-dev"

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "acr",
		EnvPrefix:   "ACR",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := buildLogger(cfg.Observability.Logging)
	retryConfig := buildRetryConfig(cfg.HTTP)

	providerName, providerCfg, err := cfg.EnabledProvider()
	if err != nil {
		return err
	}
	evaluator, err := buildEvaluator(providerName, providerCfg, retryConfig, logger)
	if err != nil {
		return err
	}

	var redactor review.Redactor
	if cfg.Redaction.Enabled {
		redactor = redaction.NewEngine()
	}

	var seed func(string) int64
	if cfg.Determinism.Enabled {
		seed = determinism.SeedFromContent
	}

	var store *sqlite.Store
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else if store, err = sqlite.NewStore(cfg.Store.Path, providerName); err != nil {
			log.Printf("warning: failed to initialize store: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	deps := review.Deps{
		Evaluator: evaluator,
		Estimator: llm.Estimator{},
		Redactor:  redactor,
		Logger:    observability.NewReviewLogger(logger),
		Seed:      seed,
	}
	if store != nil {
		deps.Recorder = store
	}

	service, err := review.NewService(deps, review.Options{
		UnitSizeThreshold: cfg.Review.UnitSizeThreshold,
		ContextLines:      cfg.Review.ContextLines,
		ConcurrencyLimit:  cfg.Review.ConcurrencyLimit,
		PerCallTimeout:    cfg.PerCallTimeoutDuration(),
		MaxTokens:         cfg.Review.MaxTokens,
		Aggregation: review.AggregateConfig{
			SeverityThreshold: domain.Severity(cfg.Review.SeverityThreshold),
			MaxComments:       cfg.Review.MaxComments,
			IncludePositive:   cfg.Review.IncludePositive,
			DedupSimilarity:   cfg.Review.DedupSimilarity,
			QualityWeights:    cfg.SeverityQualityWeights(),
		},
	})
	if err != nil {
		return err
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}

	cliDeps := cli.Dependencies{
		Reviewer:      service,
		Git:           git.NewEngine(repoDir),
		Args:          cli.Arguments{InReader: os.Stdin, OutWriter: os.Stdout, ErrWriter: os.Stderr},
		DefaultFormat: cfg.Output.Format,
		ColorMode:     cfg.Output.Color,
		Version:       version,
	}
	if store != nil {
		cliDeps.History = store
	}

	root := cli.NewRootCommand(cliDeps)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func buildEvaluator(name string, cfg config.ProviderConfig, retry llmhttp.RetryConfig, logger llmhttp.Logger) (review.Evaluator, error) {
	switch name {
	case "anthropic":
		client := anthropic.NewHTTPClient(cfg.APIKey, cfg.Model)
		client.SetRetryConfig(retry)
		client.SetLogger(logger)
		if cfg.BaseURL != "" {
			client.SetBaseURL(cfg.BaseURL)
		}
		return anthropic.NewProvider(client), nil
	case "openai":
		client := openai.NewHTTPClient(cfg.APIKey, cfg.Model)
		client.SetRetryConfig(retry)
		client.SetLogger(logger)
		if cfg.BaseURL != "" {
			client.SetBaseURL(cfg.BaseURL)
		}
		return openai.NewProvider(client), nil
	case "ollama":
		client := ollama.NewHTTPClient(cfg.BaseURL, cfg.Model)
		client.SetRetryConfig(retry)
		return ollama.NewProvider(client), nil
	case "static":
		return static.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func buildLogger(cfg config.LoggingConfig) llmhttp.Logger {
	level := llmhttp.LogLevelInfo
	switch cfg.Level {
	case "debug":
		level = llmhttp.LogLevelDebug
	case "error":
		level = llmhttp.LogLevelError
	}

	format := llmhttp.LogFormatHuman
	if cfg.Format == "json" {
		format = llmhttp.LogFormatJSON
	}
	return llmhttp.NewDefaultLogger(level, format)
}

func buildRetryConfig(cfg config.HTTPConfig) llmhttp.RetryConfig {
	retry := llmhttp.DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	if d, err := time.ParseDuration(cfg.InitialBackoff); err == nil {
		retry.InitialBackoff = d
	}
	if d, err := time.ParseDuration(cfg.MaxBackoff); err == nil {
		retry.MaxBackoff = d
	}
	if cfg.BackoffMultiplier > 0 {
		retry.Multiplier = cfg.BackoffMultiplier
	}
	return retry
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "acr"))
	}
	return paths
}
