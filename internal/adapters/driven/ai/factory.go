// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/lexrag/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/lexrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/lexrag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/lexrag/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/lexrag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/lexrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/lexrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint is appended to provider errors surfaced to the user.
const fixHint = "Run 'lexrag settings' to fix"

// Services holds the AI services used by the RAG pipeline.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.Embedding != nil {
		_ = s.Embedding.Close()
	}
	if s.LLM != nil {
		_ = s.LLM.Close()
	}
}

// Init creates both services from application settings. The LLM is only
// created when withLLM is set, so retrieval-only commands do not need a
// generation provider.
func Init(ctx context.Context, settings *domain.AppSettings, withLLM bool) (*Services, error) {
	timeout := settings.Runtime.Timeout

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding, timeout)
	if err != nil {
		return nil, err
	}

	services := &Services{Embedding: embedder}
	if !withLLM {
		return services, nil
	}

	llm, err := CreateAndValidateLLMService(ctx, &settings.LLM, timeout)
	if err != nil {
		services.Close()
		return nil, err
	}
	services.LLM = llm

	return services, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
	timeout time.Duration,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, settings, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w. %s", err, fixHint)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w. %s", withSentinel(err, domain.ErrEmbeddingUnavailable), fixHint)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(
	ctx context.Context,
	settings *domain.LLMSettings,
	timeout time.Duration,
) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w. %s", err, fixHint)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w. %s", withSentinel(err, domain.ErrGenerationUnavailable), fixHint)
	}

	return svc, nil
}

// withSentinel wraps err in sentinel unless it already matches.
func withSentinel(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
// An unconfigured provider is not an error here; the settings command saves it as is.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(ctx, settings, 0)
	if err != nil {
		return err
	}
	defer svc.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(pingCtx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(ctx, settings, 0)
	if err != nil {
		return err
	}
	defer svc.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(pingCtx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
func CreateEmbeddingService(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
	timeout time.Duration,
) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding provider is not configured", domain.ErrInvalidConfiguration)
	}
	if !settings.Provider.SupportsEmbedding() {
		return nil, fmt.Errorf("%w: %s does not support embeddings, use ollama, openai or gemini",
			domain.ErrInvalidConfiguration, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key (set %s)",
			domain.ErrInvalidConfiguration, settings.Provider, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings, timeout), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings, timeout)

	case domain.AIProviderGemini:
		return createGeminiEmbedding(ctx, settings, timeout)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s",
			domain.ErrInvalidConfiguration, settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
func CreateLLMService(
	ctx context.Context,
	settings *domain.LLMSettings,
	timeout time.Duration,
) (driven.LLMService, error) {
	if settings == nil || !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: LLM provider is not configured", domain.ErrInvalidConfiguration)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key (set %s)",
			domain.ErrInvalidConfiguration, settings.Provider, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings, timeout), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings, timeout)

	case domain.AIProviderGroq:
		return createGroqLLM(settings, timeout)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings, timeout)

	case domain.AIProviderGemini:
		return createGeminiLLM(ctx, settings, timeout)

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s",
			domain.ErrInvalidConfiguration, settings.Provider)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings, timeout time.Duration) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Timeout:    timeout,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings, timeout time.Duration) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: timeout,
	})
}

// createGeminiEmbedding creates a Gemini embedding service.
func createGeminiEmbedding(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
	timeout time.Duration,
) (driven.EmbeddingService, error) {
	return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
		Timeout:    timeout,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings, timeout time.Duration) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: timeout,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: timeout,
	})
}

// createGroqLLM creates a Groq LLM service on the OpenAI-compatible adapter.
func createGroqLLM(settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = openaillm.GroqBaseURL
	}
	model := settings.Model
	if model == "" {
		model = domain.DefaultLLMModels()[domain.AIProviderGroq]
	}

	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:   settings.APIKey,
		BaseURL:  baseURL,
		Model:    model,
		Timeout:  timeout,
		Provider: string(domain.AIProviderGroq),
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: timeout,
	})
}

// createGeminiLLM creates a Gemini LLM service.
func createGeminiLLM(ctx context.Context, settings *domain.LLMSettings, timeout time.Duration) (driven.LLMService, error) {
	return geminillm.NewLLMService(ctx, geminillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
		Timeout: timeout,
	})
}
