package driven

import "context"

// LLMService is the generation provider used to answer questions.
//
// Implementations may include:
//   - Groq and OpenAI (chat completions)
//   - Anthropic (messages)
//   - Gemini (generate content)
//   - Ollama (local models)
//
// Failures to reach the model are reported wrapped in domain.ErrGenerationUnavailable.
type LLMService interface {
	// Chat sends role-tagged messages and returns the generated reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a message in a conversation.
type ChatMessage struct {
	// Role is "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
