package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// mockAIValidator records validation calls.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	embedCalls   int
	llmCalls     int
}

func (m *mockAIValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	m.embedCalls++
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(_ *domain.LLMSettings) error {
	m.llmCalls++
	return m.llmErr
}

// clearAPIKeyEnv isolates tests from keys exported in the developer's shell.
func clearAPIKeyEnv(t *testing.T) {
	t.Helper()
	for _, p := range domain.AllLLMProviders() {
		if env := p.APIKeyEnv(); env != "" {
			t.Setenv(env, "")
		}
	}
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	clearAPIKeyEnv(t)
	dataDir := t.TempDir()
	service := NewSettingsService(memory.NewConfigStore(), nil, dataDir)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Embedding.Model, settings.Embedding.Model)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.RAG, settings.RAG)
	assert.Equal(t, defaults.Runtime, settings.Runtime)
	assert.Equal(t, filepath.Join(dataDir, "index.db"), settings.Index.Path)
	assert.Equal(t, filepath.Join(dataDir, "pdfs"), settings.Library.Dir)
}

func TestSettingsService_Get_NoDataDir(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil, "")

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Empty(t, settings.Index.Path)
	assert.Empty(t, settings.Library.Dir)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("rag.chunk_size", int64(500))
	_ = store.Set("rag.chunk_overlap", int64(0))
	_ = store.Set("rag.top_k", int64(2))
	_ = store.Set("ai.timeout", "90s")
	_ = store.Set("ai.requests_per_second", 2.5)
	_ = store.Set("index.path", "/data/udhr.db")

	settings, err := NewSettingsService(store, nil, "").Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, domain.RAGSettings{ChunkSize: 500, ChunkOverlap: 0, TopK: 2}, settings.RAG)
	assert.Equal(t, 90*time.Second, settings.Runtime.Timeout)
	assert.InDelta(t, 2.5, settings.Runtime.RequestsPerSecond, 0)
	assert.Equal(t, "/data/udhr.db", settings.Index.Path)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("ai.timeout", "soon")

	settings, err := NewSettingsService(store, nil, "").Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Runtime.Timeout, settings.Runtime.Timeout)
}

func TestSettingsService_Get_APIKeyFromEnv(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-from-env")

	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil, "")

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "gsk-from-env", settings.LLM.APIKey)

	// A configured key wins over the environment.
	_ = store.Set("llm.api_key", "gsk-from-file")
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "gsk-from-file", settings.LLM.APIKey)
}

func TestSettingsService_Save_DoesNotPersistEnvKey(t *testing.T) {
	clearAPIKeyEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-from-env")

	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil, "")

	settings, err := service.Get()
	require.NoError(t, err)
	require.NoError(t, service.Save(settings))

	_, stored := store.Get("llm.api_key")
	assert.False(t, stored)
	assert.Equal(t, "groq", store.GetString("llm.provider"))
	assert.Equal(t, 1000, store.GetInt("rag.chunk_size"))
	assert.Equal(t, "1m0s", store.GetString("ai.timeout"))
}

func TestSettingsService_SaveAndReload(t *testing.T) {
	clearAPIKeyEnv(t)
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil, "")

	settings := domain.DefaultAppSettings()
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderAnthropic, Model: "claude-3-5-sonnet-latest", APIKey: "sk-ant"}
	settings.RAG = domain.RAGSettings{ChunkSize: 800, ChunkOverlap: 100, TopK: 6}
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings.LLM, got.LLM)
	assert.Equal(t, settings.RAG, got.RAG)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	clearAPIKeyEnv(t)

	tests := []struct {
		name      string
		provider  domain.AIProvider
		model     string
		apiKey    string
		wantErr   bool
		wantModel string
		wantURL   string
	}{
		{name: "ollama default model", provider: domain.AIProviderOllama, wantModel: "nomic-embed-text", wantURL: "http://localhost:11434"},
		{name: "openai with key", provider: domain.AIProviderOpenAI, apiKey: "sk", wantModel: "text-embedding-3-small"},
		{name: "gemini custom model", provider: domain.AIProviderGemini, model: "text-embedding-004", apiKey: "k", wantModel: "text-embedding-004"},
		{name: "openai without key", provider: domain.AIProviderOpenAI, wantErr: true},
		{name: "anthropic has no embeddings", provider: domain.AIProviderAnthropic, apiKey: "k", wantErr: true},
		{name: "unknown provider", provider: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore(), nil, "")

			err := service.SetEmbeddingProvider(tt.provider, tt.model, tt.apiKey)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)

			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.Embedding.Provider)
			assert.Equal(t, tt.wantModel, settings.Embedding.Model)
			assert.Equal(t, tt.wantURL, settings.Embedding.BaseURL)
		})
	}
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	clearAPIKeyEnv(t)
	service := NewSettingsService(memory.NewConfigStore(), nil, "")

	require.NoError(t, service.SetLLMProvider(domain.AIProviderGemini, "", "gemini-key"))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderGemini, settings.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", settings.LLM.Model)
	assert.Equal(t, "gemini-key", settings.LLM.APIKey)
	assert.Empty(t, settings.LLM.BaseURL)

	assert.ErrorIs(t, service.SetLLMProvider(domain.AIProviderGroq, "", ""), domain.ErrInvalidConfiguration)

	t.Setenv("GROQ_API_KEY", "gsk-env")
	assert.NoError(t, service.SetLLMProvider(domain.AIProviderGroq, "", ""))
}

func TestSettingsService_SetRAG(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil, "")

	assert.ErrorIs(t, service.SetRAG(domain.RAGSettings{ChunkSize: 100, ChunkOverlap: 100, TopK: 4}),
		domain.ErrInvalidConfiguration)
	assert.ErrorIs(t, service.SetRAG(domain.RAGSettings{ChunkSize: 100, ChunkOverlap: 10, TopK: 0}),
		domain.ErrInvalidConfiguration)

	require.NoError(t, service.SetRAG(domain.RAGSettings{ChunkSize: 50, ChunkOverlap: 10, TopK: 1}))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.RAGSettings{ChunkSize: 50, ChunkOverlap: 10, TopK: 1}, settings.RAG)
}

func TestSettingsService_SetValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
		check   func(t *testing.T, s *domain.AppSettings)
	}{
		{
			name: "chunk size", key: "rag.chunk_size", value: "1200",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 1200, s.RAG.ChunkSize) },
		},
		{
			name: "overlap zero", key: "rag.chunk_overlap", value: "0",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 0, s.RAG.ChunkOverlap) },
		},
		{
			name: "timeout", key: "ai.timeout", value: "2m",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, 2*time.Minute, s.Runtime.Timeout) },
		},
		{
			name: "rate", key: "ai.requests_per_second", value: "0.5",
			check: func(t *testing.T, s *domain.AppSettings) { assert.InDelta(t, 0.5, s.Runtime.RequestsPerSecond, 0) },
		},
		{
			name: "llm provider", key: "llm.provider", value: "ollama",
			check: func(t *testing.T, s *domain.AppSettings) { assert.Equal(t, domain.AIProviderOllama, s.LLM.Provider) },
		},
		{name: "overlap not below size", key: "rag.chunk_overlap", value: "1000", wantErr: true},
		{name: "top k zero", key: "rag.top_k", value: "0", wantErr: true},
		{name: "not an integer", key: "rag.top_k", value: "four", wantErr: true},
		{name: "bad duration", key: "ai.timeout", value: "forever", wantErr: true},
		{name: "zero concurrency", key: "ai.concurrency", value: "0", wantErr: true},
		{name: "embedding provider without embeddings", key: "embedding.provider", value: "groq", wantErr: true},
		{name: "unknown key", key: "search.mode", value: "hybrid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store, nil, "")

			err := service.SetValue(tt.key, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				_, stored := store.Get(tt.key)
				assert.False(t, stored)
				return
			}
			require.NoError(t, err)

			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore(), nil, "").Keys()
	assert.Contains(t, keys, "rag.top_k")
	assert.Contains(t, keys, "index.path")
	assert.IsIncreasing(t, keys)
}

func TestSettingsService_Validate(t *testing.T) {
	clearAPIKeyEnv(t)
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil, "")

	// Default LLM is groq, which needs a key.
	err := service.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	t.Setenv("GROQ_API_KEY", "gsk")
	assert.NoError(t, service.Validate())

	_ = store.Set("rag.chunk_overlap", 5000)
	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidConfiguration)
}

func TestSettingsService_ValidateProviderConfigs(t *testing.T) {
	validator := &mockAIValidator{llmErr: errors.New("unreachable")}
	service := NewSettingsService(memory.NewConfigStore(), validator, "")

	assert.NoError(t, service.ValidateEmbeddingConfig())
	assert.EqualError(t, service.ValidateLLMConfig(), "unreachable")
	assert.Equal(t, 1, validator.embedCalls)
	assert.Equal(t, 1, validator.llmCalls)

	assert.NoError(t, NewSettingsService(memory.NewConfigStore(), nil, "").ValidateLLMConfig())
}
