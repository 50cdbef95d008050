package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleIndexResource(t *testing.T) {
	ctx := context.Background()

	t.Run("populated index", func(t *testing.T) {
		builtAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		rag := &mockRAGService{info: domain.IndexInfo{
			Entries:   120,
			Documents: 3,
			Path:      "/home/counsel/.lexrag/index.db",
			Metadata: domain.IndexMetadata{
				Dimension:      768,
				EmbeddingModel: "nomic-embed-text",
				BuiltAt:        builtAt,
			},
		}}
		server, err := NewServer(&Ports{RAG: rag})
		require.NoError(t, err)

		result, err := server.handleIndexResource(ctx, makeReadResourceRequest(indexURI))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got indexInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, indexInfo{
			Entries:        120,
			Documents:      3,
			Path:           "/home/counsel/.lexrag/index.db",
			Dimension:      768,
			EmbeddingModel: "nomic-embed-text",
			BuiltAt:        "2026-03-01T12:00:00Z",
		}, got)
	})

	t.Run("empty index", func(t *testing.T) {
		server, err := NewServer(&Ports{RAG: &mockRAGService{}})
		require.NoError(t, err)

		result, err := server.handleIndexResource(ctx, makeReadResourceRequest(indexURI))
		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"entries": 0`)
		assert.NotContains(t, result.Contents[0].Text, "built_at")
	})
}
