package driven

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// Chunker splits a document's pages into overlapping chunks.
// Output is deterministic for identical input.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits every page of doc. Chunks never span pages.
	Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
