package driven

import "github.com/custodia-labs/lexrag/internal/core/domain"

// AIConfigValidator checks provider settings before they are saved by
// building a client and pinging the provider with it.
type AIConfigValidator interface {
	// ValidateEmbedding fails with domain.ErrEmbeddingUnavailable when the
	// embedding provider cannot be reached with config.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM fails with domain.ErrGenerationUnavailable when the
	// generation provider cannot be reached with config.
	ValidateLLM(config *domain.LLMSettings) error
}
