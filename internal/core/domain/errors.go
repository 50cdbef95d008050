package domain

import "errors"

// Domain errors represent pipeline failures.
// Adapters wrap their underlying cause with one of these so callers can
// branch with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a source format no loader handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrSourceUnreadable indicates a source document does not exist or cannot be parsed.
	// It is fatal to that document only; a batch ingest continues with the rest.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrInvalidConfiguration indicates chunking or retrieval parameters violate
	// their constraints. Values are never clamped.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Provider Errors.

	// ErrEmbeddingUnavailable indicates the embedding model cannot be reached or initialised.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation model cannot be reached.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// Index Lifecycle Errors.

	// ErrEmptyCorpus indicates an index build was attempted with no chunks.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrIndexEmpty indicates a search against an index with no entries.
	ErrIndexEmpty = errors.New("index empty")

	// ErrIndexNotFound indicates no persisted index exists at the given path.
	ErrIndexNotFound = errors.New("index not found")

	// ErrCorruptIndex indicates persisted index state is inconsistent with itself.
	// The index must be rebuilt.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrIndexMismatch indicates an index was built with a different embedding
	// model or dimensionality than the one querying it.
	ErrIndexMismatch = errors.New("index built with a different embedding model")
)
