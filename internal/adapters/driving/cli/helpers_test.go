package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	answer     *domain.Answer
	retrieved  domain.RetrievalResult
	ingest     *domain.IngestResult
	info       domain.IndexInfo
	err        error
	restoreErr error

	ingested  []string
	lastQuery string
	lastK     int
	cleared   bool
}

func (m *mockRAGService) Ingest(_ context.Context, sources []string) (*domain.IngestResult, error) {
	m.ingested = append(m.ingested, sources...)
	result := m.ingest
	if result == nil {
		result = &domain.IngestResult{DocumentCount: len(sources), ChunkCount: 2 * len(sources)}
	}
	return result, m.err
}

func (m *mockRAGService) Ask(_ context.Context, query string) (*domain.Answer, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockRAGService) Retrieve(_ context.Context, query string, k int) (domain.RetrievalResult, error) {
	m.lastQuery = query
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.retrieved, nil
}

func (m *mockRAGService) Restore(_ context.Context) error { return m.restoreErr }
func (m *mockRAGService) Info() domain.IndexInfo          { return m.info }

func (m *mockRAGService) Clear(_ context.Context) error {
	m.cleared = true
	return m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	values      map[string]string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetRAG(rag domain.RAGSettings) error {
	if err := rag.Validate(); err != nil {
		return err
	}
	m.settings.RAG = rag
	return nil
}

func (m *mockSettingsService) SetValue(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	keys := []string{"rag.top_k", "llm.model", "embedding.provider"}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error        { return nil }

var _ driving.SettingsService = (*mockSettingsService)(nil)

// testEnv holds the mocks installed by setupTestServices.
type testEnv struct {
	rag      *mockRAGService
	settings *mockSettingsService
	needs    []Need
	released int
}

// setupTestServices installs mocks for every command and restores the
// package state when the test ends.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	settings := domain.DefaultAppSettings()
	dir := t.TempDir()
	settings.Index.Path = filepath.Join(dir, "index.db")
	settings.Library.Dir = filepath.Join(dir, "pdfs")

	env := &testEnv{
		rag:      &mockRAGService{},
		settings: &mockSettingsService{settings: settings},
	}

	SetDependencies(Dependencies{
		Settings: env.settings,
		OpenRAG: func(_ context.Context, need Need) (driving.RAGService, func(), error) {
			env.needs = append(env.needs, need)
			return env.rag, func() { env.released++ }, nil
		},
		Supports: func(path string) bool {
			return strings.EqualFold(filepath.Ext(path), ".pdf")
		},
	})

	t.Cleanup(func() {
		SetDependencies(Dependencies{})
		askJSON, askQuiet = false, false
		retrieveK, retrieveJSON = 0, false
		ingestCopy, indexClearYes = false, false
		verbose, versionShort = false, false
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	return env
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func article1() domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:         "chunk-1",
			DocumentID: "doc-udhr",
			PageIndex:  0,
			Content:    "Article 1. All human beings are born free and equal in dignity and rights.",
			Metadata: map[string]string{
				domain.MetadataTitle: "udhr",
				domain.MetadataURI:   "/library/udhr.pdf",
			},
		},
		Score: 0.87,
	}
}
