package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed library"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer"`
	Model   string          `json:"model"`
	Sources []PassageOutput `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the text to find relevant passages for"`
	K     int    `json:"k,omitempty" jsonschema:"number of passages to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput is one retrieved chunk.
type PassageOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	URI        string  `json:"uri,omitempty"`
	Page       int     `json:"page"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about human rights law using only the indexed documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the passages of the indexed documents most relevant to a query",
	}, s.handleRetrieve)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	answer, err := s.ports.RAG.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Model:   answer.Model,
		Sources: passages(answer.Sources),
	}, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}

	result, err := s.ports.RAG.Retrieve(ctx, input.Query, s.ports.topK(input.K))
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	out := passages(result)
	return nil, RetrieveOutput{Passages: out, Count: len(out)}, nil
}

func passages(result domain.RetrievalResult) []PassageOutput {
	out := make([]PassageOutput, len(result))
	for i, sc := range result {
		out[i] = PassageOutput{
			DocumentID: sc.Chunk.DocumentID,
			Title:      sc.Chunk.Metadata[domain.MetadataTitle],
			URI:        sc.Chunk.Metadata[domain.MetadataURI],
			Page:       sc.Chunk.PageIndex + 1,
			Score:      sc.Score,
			Content:    sc.Chunk.Content,
		}
	}
	return out
}
