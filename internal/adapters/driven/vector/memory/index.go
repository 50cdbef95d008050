// Package memory provides an in-memory vector index with brute-force cosine search.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a copy-on-build vector index. Each Replace builds a new immutable
// snapshot and publishes it with an atomic pointer swap, so searches never
// block on builds and never see a partial index.
type Index struct {
	// buildMu serialises builders. Readers never take it.
	buildMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// snapshot is an immutable view of the index.
type snapshot struct {
	meta    domain.IndexMetadata
	entries []domain.IndexEntry
	norms   []float64
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Replace installs a new snapshot built from entries.
func (i *Index) Replace(ctx context.Context, entries []domain.IndexEntry, meta domain.IndexMetadata) error {
	if len(entries) == 0 {
		return domain.ErrEmptyCorpus
	}

	dim := meta.Dimension
	if dim == 0 {
		dim = len(entries[0].Vector)
	}
	if dim == 0 {
		return fmt.Errorf("%w: entry %s has an empty vector", domain.ErrInvalidInput, entries[0].ID)
	}

	next := &snapshot{
		entries: make([]domain.IndexEntry, len(entries)),
		norms:   make([]float64, len(entries)),
	}
	for n, e := range entries {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: entry %s has dimension %d, index dimension is %d",
				domain.ErrInvalidInput, e.ID, len(e.Vector), dim)
		}
		vec := make([]float32, dim)
		copy(vec, e.Vector)
		e.Vector = vec
		next.entries[n] = e
		next.norms[n] = norm(vec)
	}

	next.meta = meta
	next.meta.Dimension = dim
	if next.meta.BuiltAt.IsZero() {
		next.meta.BuiltAt = time.Now()
	}

	i.buildMu.Lock()
	defer i.buildMu.Unlock()
	i.current.Store(next)
	return nil
}

// Search returns the k entries most similar to query by cosine similarity.
func (i *Index) Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidConfiguration, k)
	}

	snap := i.current.Load()
	if snap == nil || len(snap.entries) == 0 {
		return nil, domain.ErrIndexEmpty
	}
	if len(query) != snap.meta.Dimension {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			domain.ErrIndexMismatch, len(query), snap.meta.Dimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qNorm := norm(query)
	scored := make([]domain.ScoredChunk, len(snap.entries))
	for n, e := range snap.entries {
		scored[n] = domain.ScoredChunk{
			Chunk: e.Chunk,
			Score: cosine(query, qNorm, e.Vector, snap.norms[n]),
		}
	}

	// Stable keeps insertion order among equal scores.
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return domain.RetrievalResult(scored), nil
}

// Snapshot returns the current snapshot, or nil before the first Replace.
// The returned entries share vectors with the index and must not be modified.
func (i *Index) Snapshot() *domain.IndexSnapshot {
	snap := i.current.Load()
	if snap == nil {
		return nil
	}
	return &domain.IndexSnapshot{
		Metadata: snap.meta,
		Entries:  snap.entries,
	}
}

// Len returns the number of entries in the current snapshot.
func (i *Index) Len() int {
	snap := i.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// Reset drops the current snapshot.
func (i *Index) Reset() {
	i.buildMu.Lock()
	defer i.buildMu.Unlock()
	i.current.Store(nil)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero magnitude.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
	}
	return dot / (aNorm * bNorm)
}
