// Package connectors provides document sources for ingestion.
// The filesystem connector scans and watches the local PDF library.
package connectors
