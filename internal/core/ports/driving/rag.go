package driving

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// RAGService is the core's inbound surface: ingest documents, ask questions.
type RAGService interface {
	// Ingest loads, chunks and embeds each source and installs a new index snapshot
	// containing the previous entries plus the new ones.
	// Unreadable sources are reported in IngestResult.Failed; the batch continues.
	Ingest(ctx context.Context, sources []string) (*domain.IngestResult, error)

	// Ask retrieves context for query and returns a grounded answer.
	Ask(ctx context.Context, query string) (*domain.Answer, error)

	// Retrieve returns the k chunks most relevant to query.
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)

	// Restore loads the persisted index into memory.
	Restore(ctx context.Context) error

	// Info summarises the active index.
	Info() domain.IndexInfo

	// Clear drops the in-memory index and removes the persisted copy.
	Clear(ctx context.Context) error
}
