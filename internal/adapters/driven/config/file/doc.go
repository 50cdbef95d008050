// Package file stores lexrag settings in a TOML file, by default
// ~/.lexrag/config.toml. Settings are addressed by dotted keys such as
// "rag.chunk_size" and written back as nested tables.
package file
