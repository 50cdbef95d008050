package mcp

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	answer    *domain.Answer
	retrieved domain.RetrievalResult
	info      domain.IndexInfo
	err       error

	lastQuery string
	lastK     int
}

func (m *mockRAGService) Ingest(_ context.Context, _ []string) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, m.err
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

func (m *mockRAGService) Restore(_ context.Context) error {
	return m.err
}

func (m *mockRAGService) Info() domain.IndexInfo {
	return m.info
}

func (m *mockRAGService) Clear(_ context.Context) error {
	return m.err
}

func article3() domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:         "chunk-1",
			DocumentID: "doc-udhr",
			PageIndex:  1,
			Content:    "Article 3. Everyone has the right to life, liberty and security of person.",
			Metadata: map[string]string{
				domain.MetadataTitle: "udhr",
				domain.MetadataURI:   "/library/udhr.pdf",
			},
		},
		Score: 0.91,
	}
}
