package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyChunkSize      = "rag.chunk_size"
	keyChunkOverlap   = "rag.chunk_overlap"
	keyTopK           = "rag.top_k"
	keyIndexPath      = "index.path"
	keyLibraryDir     = "library.dir"
	keyTimeout        = "ai.timeout"
	keyRequestsPerSec = "ai.requests_per_second"
	keyConcurrency    = "ai.concurrency"
)

// Default file names inside the data directory.
const (
	defaultIndexFile  = "index.db"
	defaultLibraryDir = "pdfs"
)

// defaultOllamaURL is used when a local provider has no base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	dataDir     string
}

// NewSettingsService creates a new settings service.
// dataDir anchors the default index path and library directory; when empty
// those settings default to empty and index persistence is disabled.
func NewSettingsService(
	configStore driven.ConfigStore,
	aiValidator driven.AIConfigValidator,
	dataDir string,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		dataDir:     dataDir,
	}
}

// Get retrieves current application settings.
// API keys missing from the config file are read from the provider's environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := s.GetDefaults()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		RAG: domain.RAGSettings{
			ChunkSize:    s.getInt(keyChunkSize, defaults.RAG.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, defaults.RAG.ChunkOverlap),
			TopK:         s.getInt(keyTopK, defaults.RAG.TopK),
		},
		Index: domain.IndexSettings{
			Path: s.getString(keyIndexPath, defaults.Index.Path),
		},
		Library: domain.LibrarySettings{
			Dir: s.getString(keyLibraryDir, defaults.Library.Dir),
		},
		Runtime: domain.RuntimeSettings{
			Timeout:           s.getDuration(keyTimeout, defaults.Runtime.Timeout),
			RequestsPerSecond: s.getFloat(keyRequestsPerSec, defaults.Runtime.RequestsPerSecond),
			Concurrency:       s.getInt(keyConcurrency, defaults.Runtime.Concurrency),
		},
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = envAPIKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = envAPIKey(settings.LLM.Provider)
	}

	return settings, nil
}

// envAPIKey reads the provider's API key environment variable.
func envAPIKey(provider domain.AIProvider) string {
	if env := provider.APIKeyEnv(); env != "" {
		return os.Getenv(env)
	}
	return ""
}

// setting is one config key and its stored value.
type setting struct {
	key   string
	value any
}

// Save persists application settings.
// API keys equal to the environment value are not written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []setting{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChunkSize, settings.RAG.ChunkSize},
		{keyChunkOverlap, settings.RAG.ChunkOverlap},
		{keyTopK, settings.RAG.TopK},
		{keyIndexPath, settings.Index.Path},
		{keyLibraryDir, settings.Library.Dir},
		{keyTimeout, settings.Runtime.Timeout.String()},
		{keyRequestsPerSec, settings.Runtime.RequestsPerSecond},
		{keyConcurrency, settings.Runtime.Concurrency},
	}

	if key := settings.Embedding.APIKey; key != "" && key != envAPIKey(settings.Embedding.Provider) {
		values = append(values, setting{keyEmbedAPIKey, key})
	}
	if key := settings.LLM.APIKey; key != "" && key != envAPIKey(settings.LLM.Provider) {
		values = append(values, setting{keyLLMAPIKey, key})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidConfiguration, provider)
	}
	if !provider.SupportsEmbedding() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidConfiguration, provider)
	}
	if apiKey == "" {
		apiKey = envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (or set %s)",
			domain.ErrInvalidConfiguration, provider, provider.APIKeyEnv())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the generation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidConfiguration, provider)
	}
	if apiKey == "" {
		apiKey = envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (or set %s)",
			domain.ErrInvalidConfiguration, provider, provider.APIKeyEnv())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}

// baseURLFor keeps a local provider's URL and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// SetRAG updates chunking and retrieval parameters.
func (s *SettingsService) SetRAG(rag domain.RAGSettings) error {
	if err := rag.Validate(); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.RAG = rag
	return s.Save(settings)
}

// SetValue parses and stores a single setting by its config key.
// Changing a provider this way leaves the model untouched.
func (s *SettingsService) SetValue(key, value string) error {
	var parsed any

	switch key {
	case keyEmbedProvider:
		p := domain.AIProvider(value)
		if !p.SupportsEmbedding() {
			return fmt.Errorf("%w: provider %q does not support embeddings", domain.ErrInvalidConfiguration, value)
		}
		parsed = value
	case keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid LLM provider %q", domain.ErrInvalidConfiguration, value)
		}
		parsed = value
	case keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
		keyIndexPath, keyLibraryDir:
		parsed = value
	case keyChunkSize, keyChunkOverlap, keyTopK, keyConcurrency:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %w", domain.ErrInvalidConfiguration, key, err)
		}
		parsed = n
	case keyRequestsPerSec:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number: %w", domain.ErrInvalidConfiguration, key, err)
		}
		parsed = f
	case keyTimeout:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a duration: %w", domain.ErrInvalidConfiguration, key, err)
		}
		parsed = d.String()
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidConfiguration, key)
	}

	// Check the result before persisting so an invalid value never lands on disk.
	settings, err := s.Get()
	if err != nil {
		return err
	}
	switch key {
	case keyChunkSize:
		settings.RAG.ChunkSize = parsed.(int)
	case keyChunkOverlap:
		settings.RAG.ChunkOverlap = parsed.(int)
	case keyTopK:
		settings.RAG.TopK = parsed.(int)
	}
	if err := settings.RAG.Validate(); err != nil {
		return err
	}
	if key == keyConcurrency && parsed.(int) <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidConfiguration, key)
	}
	if key == keyRequestsPerSec && parsed.(float64) <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidConfiguration, key)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised config key, sorted.
func (s *SettingsService) Keys() []string {
	keys := []string{
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
		keyChunkSize, keyChunkOverlap, keyTopK,
		keyIndexPath, keyLibraryDir,
		keyTimeout, keyRequestsPerSec, keyConcurrency,
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.RAG.Validate(); err != nil {
		return err
	}

	if !settings.Embedding.Provider.SupportsEmbedding() {
		return fmt.Errorf("%w: embedding provider %q does not support embeddings",
			domain.ErrInvalidConfiguration, settings.Embedding.Provider)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s requires an API key (set %s)",
			domain.ErrInvalidConfiguration, settings.Embedding.Provider, settings.Embedding.Provider.APIKeyEnv())
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %s requires an API key (set %s)",
			domain.ErrInvalidConfiguration, settings.LLM.Provider, settings.LLM.Provider.APIKeyEnv())
	}

	rt := settings.Runtime
	if rt.Timeout <= 0 || rt.RequestsPerSecond <= 0 || rt.Concurrency <= 0 {
		return fmt.Errorf("%w: ai.timeout, ai.requests_per_second and ai.concurrency must be positive",
			domain.ErrInvalidConfiguration)
	}

	return nil
}

// GetDefaults returns default settings with paths anchored at the data directory.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	if s.dataDir != "" {
		defaults.Index.Path = filepath.Join(s.dataDir, defaultIndexFile)
		defaults.Library.Dir = filepath.Join(s.dataDir, defaultLibraryDir)
	}
	return defaults
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt returns defaultVal only when the key is absent, so an explicit 0 survives.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
