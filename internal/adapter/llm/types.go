package llm

// Usage captures token consumption reported by a provider API call.
type Usage struct {
	TokensIn  int
	TokensOut int
}

// CompletionResponse is the standardized raw-text result from any
// provider client. Provider adapters decode Text into an Evaluation
// with DecodeEvaluation.
type CompletionResponse struct {
	Model string
	Text  string
	Usage Usage
}
