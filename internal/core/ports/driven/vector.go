package driven

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// VectorIndex holds embedded chunks and answers nearest-neighbour queries.
// Readers always see a complete snapshot: Replace builds the next snapshot
// aside and swaps it in, so in-flight searches keep the one they started with.
type VectorIndex interface {
	// Replace installs a new snapshot built from entries.
	// Returns domain.ErrEmptyCorpus if entries is empty and
	// domain.ErrInvalidInput if vector dimensions disagree.
	Replace(ctx context.Context, entries []domain.IndexEntry, meta domain.IndexMetadata) error

	// Search returns the k entries most similar to query, highest score first.
	// Ties keep insertion order. Returns domain.ErrIndexEmpty when nothing is stored.
	Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error)

	// Snapshot returns the current snapshot, or nil before the first Replace.
	Snapshot() *domain.IndexSnapshot

	// Len returns the number of entries in the current snapshot.
	Len() int

	// Reset drops the current snapshot.
	Reset()
}

// IndexStore persists vector index snapshots to durable storage.
type IndexStore interface {
	// Save writes the snapshot to path, replacing any previous index there.
	Save(ctx context.Context, path string, snapshot *domain.IndexSnapshot) error

	// Load reads the snapshot at path.
	// Returns domain.ErrIndexNotFound if nothing was saved there and
	// domain.ErrCorruptIndex if the stored state is inconsistent.
	Load(ctx context.Context, path string) (*domain.IndexSnapshot, error)

	// Remove deletes the index at path. Missing files are not an error.
	Remove(path string) error
}
