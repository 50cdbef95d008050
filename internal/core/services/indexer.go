package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Default indexer limits.
const (
	DefaultConcurrency       = 4
	DefaultRequestsPerSecond = 10
)

// Indexer embeds chunks into index entries.
// Embedding calls run concurrently up to a fixed limit and are rate limited,
// so a large ingest does not flood the provider.
type Indexer struct {
	embedder    driven.EmbeddingService
	limiter     *rate.Limiter
	concurrency int
	timeout     time.Duration
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithConcurrency sets the number of embedding calls in flight.
func WithConcurrency(n int) IndexerOption {
	return func(x *Indexer) {
		if n > 0 {
			x.concurrency = n
		}
	}
}

// WithRateLimit caps embedding calls per second. Zero or less disables the limit.
func WithRateLimit(rps float64) IndexerOption {
	return func(x *Indexer) {
		if rps <= 0 {
			x.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		x.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithCallTimeout bounds each embedding call.
func WithCallTimeout(d time.Duration) IndexerOption {
	return func(x *Indexer) {
		x.timeout = d
	}
}

// NewIndexer creates an indexer that embeds with embedder.
func NewIndexer(embedder driven.EmbeddingService, opts ...IndexerOption) *Indexer {
	x := &Indexer{
		embedder:    embedder,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Build embeds every chunk and returns one entry per chunk in input order.
// Returns domain.ErrEmptyCorpus if chunks is empty. The first embedding
// failure cancels the remaining calls and is returned unchanged.
func (x *Indexer) Build(ctx context.Context, chunks []domain.Chunk) ([]domain.IndexEntry, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	logger.Debug("Embedding %d chunks with %s (concurrency %d)", len(chunks), x.embedder.ModelName(), x.concurrency)
	start := time.Now()

	entries := make([]domain.IndexEntry, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.concurrency)

	for i := range chunks {
		g.Go(func() error {
			if err := x.limiter.Wait(gctx); err != nil {
				return err
			}

			vec, err := x.embed(gctx, chunks[i].Content)
			if err != nil {
				return fmt.Errorf("embedding chunk %s: %w", chunks[i].ID, err)
			}

			entries[i] = domain.IndexEntry{
				ID:     chunks[i].ID,
				Vector: vec,
				Chunk:  chunks[i],
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := len(entries[0].Vector)
	for _, e := range entries {
		if len(e.Vector) != dim {
			return nil, fmt.Errorf("%w: provider returned vectors of dimension %d and %d",
				domain.ErrIndexMismatch, dim, len(e.Vector))
		}
	}

	logger.Debug("Embedded %d chunks (dimension %d) in %s", len(entries), dim, time.Since(start).Round(time.Millisecond))
	return entries, nil
}

// embed calls the provider with the per-call timeout applied.
func (x *Indexer) embed(ctx context.Context, text string) ([]float32, error) {
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: %s returned an empty vector", domain.ErrEmbeddingUnavailable, x.embedder.ModelName())
	}
	return vec, nil
}
