// Package driving defines the use cases that front ends call into: the RAG
// pipeline (ingest, ask, retrieve, index lifecycle) and settings management.
//
// The CLI and the MCP server depend only on these interfaces; the
// implementations live in internal/core/services.
package driving
