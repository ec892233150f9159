// Package config loads and validates application configuration from
// acr.yaml files and ACR_-prefixed environment variables.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ssivitskiy/ai-code-reviewer/internal/domain"
)

// Config represents the full application configuration.
type Config struct {
	Review        ReviewConfig              `yaml:"review" mapstructure:"review"`
	Providers     map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
	HTTP          HTTPConfig                `yaml:"http" mapstructure:"http"`
	Redaction     RedactionConfig           `yaml:"redaction" mapstructure:"redaction"`
	Determinism   DeterminismConfig         `yaml:"determinism" mapstructure:"determinism"`
	Store         StoreConfig               `yaml:"store" mapstructure:"store"`
	Git           GitConfig                 `yaml:"git" mapstructure:"git"`
	Output        OutputConfig              `yaml:"output" mapstructure:"output"`
	Observability ObservabilityConfig       `yaml:"observability" mapstructure:"observability"`
}

// ReviewConfig tunes the review pipeline.
type ReviewConfig struct {
	SeverityThreshold string             `yaml:"severityThreshold" mapstructure:"severityThreshold"`
	MaxComments       int                `yaml:"maxComments" mapstructure:"maxComments"`
	IncludePositive   bool               `yaml:"includePositive" mapstructure:"includePositive"`
	UnitSizeThreshold int                `yaml:"unitSizeThreshold" mapstructure:"unitSizeThreshold"`
	ContextLines      int                `yaml:"contextLines" mapstructure:"contextLines"`
	ConcurrencyLimit  int                `yaml:"concurrencyLimit" mapstructure:"concurrencyLimit"`
	PerCallTimeout    string             `yaml:"perCallTimeout" mapstructure:"perCallTimeout"`
	DedupSimilarity   float64            `yaml:"dedupSimilarity" mapstructure:"dedupSimilarity"`
	QualityWeights    map[string]float64 `yaml:"qualityWeights" mapstructure:"qualityWeights"`
	MaxTokens         int                `yaml:"maxTokens" mapstructure:"maxTokens"`
}

// ProviderConfig configures a single evaluation provider.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Model   string `yaml:"model" mapstructure:"model"`
	APIKey  string `yaml:"apiKey" mapstructure:"apiKey"`
	BaseURL string `yaml:"baseURL" mapstructure:"baseURL"`
}

// HTTPConfig holds shared HTTP client settings for provider calls.
type HTTPConfig struct {
	MaxRetries        int     `yaml:"maxRetries" mapstructure:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff" mapstructure:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff" mapstructure:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier" mapstructure:"backoffMultiplier"`
}

// RedactionConfig toggles secret redaction of prompt content.
type RedactionConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// DeterminismConfig toggles content-derived seeding.
type DeterminismConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// StoreConfig configures the review-history store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// GitConfig locates the repository for staged reviews.
type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir" mapstructure:"repositoryDir"`
}

// OutputConfig selects the report format.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Color  string `yaml:"color" mapstructure:"color"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ValidationError reports configuration problems found before any
// processing starts. It is fatal: the run never begins.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

var knownProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"ollama":    true,
	"static":    true,
}

var keyRequired = map[string]bool{
	"openai":    true,
	"anthropic": true,
}

var outputFormats = map[string]bool{
	"terminal": true,
	"json":     true,
	"comments": true,
}

// Validate checks the configuration and returns a *ValidationError
// listing every problem found.
func (c Config) Validate() error {
	var problems []string

	review := c.Review
	if _, err := domain.ParseSeverity(review.SeverityThreshold); err != nil {
		problems = append(problems, fmt.Sprintf("review.severityThreshold: %v", err))
	}
	if review.MaxComments < 1 {
		problems = append(problems, "review.maxComments must be at least 1")
	}
	if review.UnitSizeThreshold < 0 {
		problems = append(problems, "review.unitSizeThreshold must not be negative")
	}
	if review.ContextLines < 0 {
		problems = append(problems, "review.contextLines must not be negative")
	}
	if review.ConcurrencyLimit < 1 {
		problems = append(problems, "review.concurrencyLimit must be at least 1")
	}
	if review.DedupSimilarity < 0 || review.DedupSimilarity > 1 {
		problems = append(problems, "review.dedupSimilarity must be between 0 and 1")
	}
	if _, err := time.ParseDuration(review.PerCallTimeout); err != nil {
		problems = append(problems, fmt.Sprintf("review.perCallTimeout: %v", err))
	}
	for name, weight := range review.QualityWeights {
		if _, err := domain.ParseSeverity(name); err != nil {
			problems = append(problems, fmt.Sprintf("review.qualityWeights: %v", err))
		}
		if weight < 0 {
			problems = append(problems, fmt.Sprintf("review.qualityWeights.%s must not be negative", name))
		}
	}

	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		provider := c.Providers[name]
		if !knownProviders[name] {
			problems = append(problems, fmt.Sprintf("providers.%s: unknown provider", name))
			continue
		}
		if provider.Enabled && keyRequired[name] && provider.APIKey == "" {
			problems = append(problems, fmt.Sprintf("providers.%s: apiKey is required", name))
		}
	}

	if c.HTTP.MaxRetries < 0 {
		problems = append(problems, "http.maxRetries must not be negative")
	}
	if _, err := time.ParseDuration(c.HTTP.InitialBackoff); err != nil {
		problems = append(problems, fmt.Sprintf("http.initialBackoff: %v", err))
	}
	if _, err := time.ParseDuration(c.HTTP.MaxBackoff); err != nil {
		problems = append(problems, fmt.Sprintf("http.maxBackoff: %v", err))
	}

	if !outputFormats[c.Output.Format] {
		problems = append(problems, fmt.Sprintf("output.format: unknown format %q", c.Output.Format))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// EnabledProvider returns the provider to use, preferring real
// providers over static when several are enabled.
func (c Config) EnabledProvider() (string, ProviderConfig, error) {
	order := []string{"anthropic", "openai", "ollama", "static"}
	for _, name := range order {
		provider, ok := c.Providers[name]
		if ok && provider.Enabled {
			return name, provider, nil
		}
	}
	return "", ProviderConfig{}, fmt.Errorf("no provider enabled")
}

// PerCallTimeoutDuration returns the parsed per-call timeout. Call
// only after Validate has passed.
func (c Config) PerCallTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Review.PerCallTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// SeverityQualityWeights converts the configured weight map to
// severity-keyed weights, falling back to defaults for missing keys.
func (c Config) SeverityQualityWeights() map[domain.Severity]float64 {
	weights := map[domain.Severity]float64{
		domain.SeverityCritical: 3.0,
		domain.SeverityHigh:     2.0,
		domain.SeverityMedium:   1.0,
		domain.SeverityLow:      0.5,
	}
	for name, weight := range c.Review.QualityWeights {
		if severity, err := domain.ParseSeverity(name); err == nil {
			weights[severity] = weight
		}
	}
	return weights
}
