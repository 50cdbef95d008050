// Package mcp provides an MCP (Model Context Protocol) server adapter for lexrag.
// It lets AI assistants ask grounded questions about the indexed library.
package mcp

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
