package ai

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator lets the settings service check provider settings with a
// live ping before saving them. Settings that are not yet complete (no
// provider, or a cloud provider without a key) pass, since there is nothing
// to reach.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the embedding provider described by config.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if err := ValidateEmbeddingConfig(context.Background(), config); err != nil {
		return withSentinel(err, domain.ErrEmbeddingUnavailable)
	}
	return nil
}

// ValidateLLM pings the generation provider described by config.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if err := ValidateLLMConfig(context.Background(), config); err != nil {
		return withSentinel(err, domain.ErrGenerationUnavailable)
	}
	return nil
}
