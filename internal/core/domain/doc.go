// Package domain holds the lexrag entities and the sentinel errors shared by
// every layer.
//
// A Document is split by a loader into Pages; the chunker cuts each Page into
// overlapping Chunks; an embedding turns each Chunk into an IndexEntry; a
// query against the index yields a RetrievalResult, and the generation model
// turns that into an Answer.
//
// Entities point at each other through identifiers only (Chunk.DocumentID,
// Chunk.PageIndex), so a persisted index outlives the documents it was built
// from.
//
// Nothing here imports outside the standard library.
package domain
