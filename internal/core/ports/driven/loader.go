package driven

import (
	"context"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// DocumentLoader reads a source file into an ordered sequence of pages.
// Each loader handles specific file extensions (e.g., .pdf, .txt).
type DocumentLoader interface {
	// Name returns the loader name for logging.
	Name() string

	// Extensions returns the lowercase file extensions this loader handles, with dot.
	Extensions() []string

	// Load reads the document at path. Page order follows the source.
	// Returns domain.ErrSourceUnreadable if the file is missing or cannot be parsed.
	// A document with no extractable text yields zero pages and no error.
	Load(ctx context.Context, path string) (*domain.Document, error)
}

// LoaderRegistry selects the loader for a path.
type LoaderRegistry interface {
	// Register adds a loader for its extensions.
	Register(loader DocumentLoader)

	// For returns the loader for path's extension.
	// Returns domain.ErrUnsupportedType if none is registered.
	For(path string) (DocumentLoader, error)

	// Supports reports whether a loader is registered for path's extension.
	Supports(path string) bool
}
