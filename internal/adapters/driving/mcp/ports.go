package mcp

import (
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// RAG answers questions and retrieves passages.
	RAG driving.RAGService

	// TopK is the retrieval depth used when a tool call does not set one.
	TopK int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}

func (p *Ports) topK(requested int) int {
	switch {
	case requested > 0:
		return requested
	case p.TopK > 0:
		return p.TopK
	default:
		return defaultTopK
	}
}
