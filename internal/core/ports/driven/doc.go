// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - DocumentLoader: Reads a source file into pages
//   - Chunker: Splits pages into overlapping chunks
//   - EmbeddingService: Maps text to vectors, for indexing and querying alike
//   - VectorIndex: Holds embedded chunks and answers nearest-neighbour queries
//   - LLMService: Generates the grounded answer
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline keeps the index in memory only:
//
//   - IndexStore: Persists and restores index snapshots
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, loader, or chunker package
package driven
