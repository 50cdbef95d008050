// Package sqlite persists vector index snapshots to a single SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the migrations/
// directory. index_meta holds the dimension, embedding model, build time and
// entry count. entries holds one row per embedded chunk in insertion order,
// with the vector stored as a little-endian float32 blob.
//
// # Atomicity
//
// Save writes a complete database to a temporary file next to the target and
// renames it into place, so a reader never opens a half-written index.
//
// # Data Location
//
// By default, the index is stored at ~/.lexrag/index.db
package sqlite
