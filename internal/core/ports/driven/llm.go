package driven

import "context"

// LLMService provides text generation for summarisation.
// This is an optional service - when nil, title summaries are skipped.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI-compatible inference servers
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Summarise creates a one-line summary of document content.
	Summarise(ctx context.Context, text string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// Temperature controls sampling randomness. Zero is deterministic.
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate.
	// Zero means the provider default.
	MaxTokens int
}
