// Package plaintext loads text and markdown files as single-page documents.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/loaders"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader handles plain text documents.
type Loader struct{}

// New creates a new plain text loader.
func New() *Loader {
	return &Loader{}
}

// Name returns the loader name.
func (l *Loader) Name() string {
	return "plaintext"
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".txt", ".md", ".markdown", ".text"}
}

// Load reads the file at path as one page.
func (l *Loader) Load(_ context.Context, path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrSourceUnreadable, path)
	}

	doc := &domain.Document{
		ID:       loaders.DocumentID(path),
		URI:      path,
		Title:    loaders.TitleFromPath(path),
		Metadata: map[string]string{"loader": "plaintext"},
		LoadedAt: time.Now(),
	}

	if text := string(data); strings.TrimSpace(text) != "" {
		doc.Pages = []domain.Page{{DocumentID: doc.ID, Index: 0, Text: text}}
	}

	return doc, nil
}
