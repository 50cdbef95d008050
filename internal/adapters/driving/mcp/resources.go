package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for lexrag resources.
	uriScheme = "lexrag://"

	indexURI = uriScheme + "index"
)

// indexInfo is the JSON shape of the index resource.
type indexInfo struct {
	Entries        int    `json:"entries"`
	Documents      int    `json:"documents"`
	Path           string `json:"path,omitempty"`
	Dimension      int    `json:"dimension,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	BuiltAt        string `json:"built_at,omitempty"`
}

func summarise(info domain.IndexInfo) indexInfo {
	out := indexInfo{
		Entries:        info.Entries,
		Documents:      info.Documents,
		Path:           info.Path,
		Dimension:      info.Metadata.Dimension,
		EmbeddingModel: info.Metadata.EmbeddingModel,
	}
	if !info.Metadata.BuiltAt.IsZero() {
		out.BuiltAt = info.Metadata.BuiltAt.UTC().Format(time.RFC3339)
	}
	return out
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         indexURI,
		Name:        "index",
		Description: "Summary of the active document index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)
}

func (s *Server) handleIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(summarise(s.ports.RAG.Info()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling index info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
