package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

func TestConfigValidator_IncompleteSettingsPass(t *testing.T) {
	v := NewConfigValidator()

	tests := []struct {
		name string
		err  error
	}{
		{"nil embedding", v.ValidateEmbedding(nil)},
		{"nil llm", v.ValidateLLM(nil)},
		{"embedding without provider", v.ValidateEmbedding(&domain.EmbeddingSettings{Model: "nomic-embed-text"})},
		{"llm without provider", v.ValidateLLM(&domain.LLMSettings{Model: "llama3.2"})},
		{"groq without key", v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderGroq})},
		{"generation-only provider for embeddings", v.ValidateEmbedding(&domain.EmbeddingSettings{
			Provider: domain.AIProviderAnthropic,
			APIKey:   "sk-ant",
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.err)
		})
	}
}

func TestConfigValidator_ValidateLLM_ReachableOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	err := NewConfigValidator().ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.2",
		BaseURL:  srv.URL,
	})
	assert.NoError(t, err)
}

func TestConfigValidator_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	t.Run("embedding", func(t *testing.T) {
		err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    "nomic-embed-text",
			BaseURL:  srv.URL,
		})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("llm", func(t *testing.T) {
		err := NewConfigValidator().ValidateLLM(&domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			Model:    "llama3.2",
			BaseURL:  srv.URL,
		})
		assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	})
}
