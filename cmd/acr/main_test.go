package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/ssivitskiy/ai-code-reviewer/internal/adapter/llm/http"
	"github.com/ssivitskiy/ai-code-reviewer/internal/config"
)

func TestBuildRetryConfig(t *testing.T) {
	retry := buildRetryConfig(config.HTTPConfig{
		MaxRetries:        5,
		InitialBackoff:    "2s",
		MaxBackoff:        "30s",
		BackoffMultiplier: 3,
	})

	assert.Equal(t, 5, retry.MaxRetries)
	assert.Equal(t, 2*time.Second, retry.InitialBackoff)
	assert.Equal(t, 30*time.Second, retry.MaxBackoff)
	assert.Equal(t, 3.0, retry.Multiplier)
}

func TestBuildRetryConfigFallsBackOnBadDurations(t *testing.T) {
	retry := buildRetryConfig(config.HTTPConfig{InitialBackoff: "bogus", MaxBackoff: ""})

	defaults := llmhttp.DefaultRetryConfig()
	assert.Equal(t, defaults.InitialBackoff, retry.InitialBackoff)
	assert.Equal(t, defaults.MaxBackoff, retry.MaxBackoff)
	assert.Equal(t, defaults.Multiplier, retry.Multiplier)
}

func TestBuildEvaluatorStatic(t *testing.T) {
	evaluator, err := buildEvaluator("static", config.ProviderConfig{}, llmhttp.DefaultRetryConfig(), buildLogger(config.LoggingConfig{}))

	require.NoError(t, err)
	assert.Equal(t, "static", evaluator.Name())
}

func TestBuildEvaluatorKnownProviders(t *testing.T) {
	logger := buildLogger(config.LoggingConfig{Level: "error"})
	retry := llmhttp.DefaultRetryConfig()

	for _, name := range []string{"anthropic", "openai", "ollama"} {
		evaluator, err := buildEvaluator(name, config.ProviderConfig{APIKey: "key", Model: "m"}, retry, logger)
		require.NoError(t, err, name)
		assert.Equal(t, name, evaluator.Name())
	}

	_, err := buildEvaluator("gemini", config.ProviderConfig{}, retry, logger)
	require.Error(t, err)
}

func TestDefaultConfigPathsIncludesWorkingDirectory(t *testing.T) {
	paths := defaultConfigPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, ".", paths[0])
}
