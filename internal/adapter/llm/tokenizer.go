// Package llm provides provider adapters and shared response decoding
// for the review pipeline.
package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ssivitskiy/ai-code-reviewer/internal/usecase/review"
)

var (
	encoder     *tiktoken.Tiktoken
	encoderOnce sync.Once
	encoderErr  error
)

func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoder, encoderErr
}

// EstimateTokens returns an estimated token count for the text using
// the cl100k_base encoding. Modern LLMs tokenize similarly enough that
// one encoding serves for size budgeting across providers.
func EstimateTokens(text string) int {
	enc, err := getEncoder()
	if err != nil {
		// Rough character-based estimate when the encoding is unavailable.
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// Estimator adapts EstimateTokens to the unit builder's port.
type Estimator struct{}

var _ review.TokenEstimator = Estimator{}

func (Estimator) EstimateTokens(text string) int {
	return EstimateTokens(text)
}
