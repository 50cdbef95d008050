package domain

import (
	"errors"
	"fmt"
	"time"
)

// Document is one logical source unit, such as one ingested file.
// It is immutable after ingestion.
type Document struct {
	// ID is the stable identifier, derived from the source path.
	ID string

	// URI is the original location of the source.
	URI string

	// Title is the human-readable title.
	Title string

	// Pages holds the loader output in source order.
	Pages []Page

	// Metadata contains loader-specific key-value pairs.
	Metadata map[string]string

	// LoadedAt is when the document was read.
	LoadedAt time.Time
}

// Page is one unit of loader output.
type Page struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the zero-based page position within the Document.
	Index int

	// Text is the raw extracted text.
	Text string
}

// Chunk is a contiguous substring of one Page, the unit of embedding and retrieval.
// It references its Page and Document by identifier only.
type Chunk struct {
	// ID is the deterministic identifier for the chunk.
	ID string

	// DocumentID links to the source Document.
	DocumentID string

	// PageIndex is the index of the source Page.
	PageIndex int

	// Offset is the start position within the Page text, in characters.
	Offset int

	// Content is the chunk text.
	Content string

	// Metadata carries source details (uri, title) through the index.
	Metadata map[string]string
}

// Source returns the chunk's source URI, or the document ID when unknown.
func (c Chunk) Source() string {
	if uri := c.Metadata[MetadataURI]; uri != "" {
		return uri
	}
	return c.DocumentID
}

// Chunk metadata keys.
const (
	MetadataURI   = "uri"
	MetadataTitle = "title"
)

// IndexEntry is one embedded chunk held by a vector index.
type IndexEntry struct {
	// ID is the similarity-searchable identifier; equal to the chunk ID.
	ID string

	// Vector is the chunk embedding.
	Vector []float32

	// Chunk is the embedded chunk.
	Chunk Chunk
}

// IndexMetadata describes how an index was built.
type IndexMetadata struct {
	// Dimension is the length of every vector in the index.
	Dimension int

	// EmbeddingModel identifies the provider model that produced the vectors.
	EmbeddingModel string

	// BuiltAt is when the current snapshot was built.
	BuiltAt time.Time
}

// IndexSnapshot is a complete, immutable view of a vector index.
type IndexSnapshot struct {
	Metadata IndexMetadata
	Entries  []IndexEntry
}

// DocumentCount returns the number of distinct documents in the snapshot.
func (s *IndexSnapshot) DocumentCount() int {
	if s == nil {
		return 0
	}
	seen := make(map[string]struct{})
	for _, e := range s.Entries {
		seen[e.Chunk.DocumentID] = struct{}{}
	}
	return len(seen)
}

// IndexInfo summarises the active index.
type IndexInfo struct {
	Entries   int
	Documents int
	Path      string
	Metadata  IndexMetadata
}

// ScoredChunk is a retrieved chunk with its relevance score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is an ordered list of chunks, most relevant first.
type RetrievalResult []ScoredChunk

// Texts returns the chunk texts in rank order.
func (r RetrievalResult) Texts() []string {
	texts := make([]string, len(r))
	for i, sc := range r {
		texts[i] = sc.Chunk.Content
	}
	return texts
}

// Answer is generated text plus the retrieval that grounded it.
type Answer struct {
	// Query is the question as asked.
	Query string

	// Text is the generated answer.
	Text string

	// Sources is the retrieval result used as context.
	Sources RetrievalResult

	// Model identifies the generation model.
	Model string
}

// IngestFailure records a document that could not be ingested.
type IngestFailure struct {
	Source string
	Err    error
}

// IngestResult summarises an ingest batch.
type IngestResult struct {
	// DocumentCount is the number of documents successfully loaded.
	DocumentCount int

	// ChunkCount is the number of chunks added to the index.
	ChunkCount int

	// Failed lists documents skipped because they were unreadable.
	Failed []IngestFailure
}

// Err joins every per-document failure, or returns nil.
func (r *IngestResult) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Source, f.Err))
	}
	return errors.Join(errs...)
}
