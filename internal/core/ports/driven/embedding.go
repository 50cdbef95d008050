package driven

import "context"

// EmbeddingService maps text to a fixed-length vector. Chunks and queries
// must go through the same instance (same model) so they share one vector
// space; the index records ModelName to enforce that across restarts.
//
// Unreachable or misconfigured models fail with domain.ErrEmbeddingUnavailable.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions is the vector length, or 0 while it is still unknown
	// (a model missing from domain.EmbeddingDimensions before its first call).
	Dimensions() int

	ModelName() string

	// Ping makes one cheap request and learns Dimensions as a side effect.
	Ping(ctx context.Context) error

	Close() error
}
