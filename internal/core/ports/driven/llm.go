package driven

import "context"

// LLMService provides language model operations for answering and
// summarisation. This is an optional service - when nil, features degrade
// gracefully to retrieval-only output.
//
// Implementations may include:
//   - Gemini (gemini-2.0-flash)
//   - Ollama (local models)
//   - OpenAI (GPT-4 family)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Answer responds to a question grounded on the supplied context text.
	Answer(ctx context.Context, contextText, question string) (string, error)

	// Summarise creates an abstract of document content.
	Summarise(ctx context.Context, text string) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
