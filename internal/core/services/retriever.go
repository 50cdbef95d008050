package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Retriever turns a free-text query into ranked chunks by embedding the query
// and searching the vector index. It adds no failure modes of its own beyond
// rejecting k <= 0.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	timeout  time.Duration
}

// NewRetriever creates a retriever over index. timeout bounds the query
// embedding call; zero means no limit beyond ctx.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, timeout time.Duration) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		timeout:  timeout,
	}
}

// Retrieve returns the k chunks most similar to query, most relevant first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidConfiguration, k)
	}
	if r.index.Len() == 0 {
		return nil, domain.ErrIndexEmpty
	}

	embedCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	vec, err := r.embedder.Embed(embedCtx, query)
	if err != nil {
		return nil, err
	}

	result, err := r.index.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	logger.Debug("Retrieved %d chunks for %q (k=%d)", len(result), query, k)
	return result, nil
}
