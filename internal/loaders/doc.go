// Package loaders provides the DocumentLoader registry and helpers shared by
// the format-specific loaders in its subpackages. Each loader knows how to
// read one family of file formats into pages.
//
// Loaders are registered with the Registry at startup.
package loaders
