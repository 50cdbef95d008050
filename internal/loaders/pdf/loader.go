// Package pdf loads PDF documents page by page.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/loaders"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader extracts plain text from each page of a PDF.
type Loader struct{}

// New creates a new PDF loader.
func New() *Loader {
	return &Loader{}
}

// Name returns the loader name.
func (l *Loader) Name() string {
	return "pdf"
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".pdf"}
}

// Load reads every page of the PDF at path.
// Pages without extractable text are skipped; page indices still follow the source.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
	}

	docID := loaders.DocumentID(path)
	pages, total, err := extractPages(ctx, docID, data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrSourceUnreadable, path, err)
	}

	logger.Debug("pdf: %s has %d pages, %d with text", path, total, len(pages))

	return &domain.Document{
		ID:    docID,
		URI:   path,
		Title: loaders.TitleFromPath(path),
		Pages: pages,
		Metadata: map[string]string{
			"loader":      "pdf",
			"total_pages": fmt.Sprintf("%d", total),
		},
		LoadedAt: time.Now(),
	}, nil
}

// extractPages parses data and returns the pages that carry text.
func extractPages(ctx context.Context, docID string, data []byte) (pages []domain.Page, total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, total, err = nil, 0, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, err
	}

	total = reader.NumPage()
	pages = make([]domain.Page, 0, total)

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf: skipping page %d: %v", i, err)
			continue
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		pages = append(pages, domain.Page{
			DocumentID: docID,
			Index:      i - 1,
			Text:       text,
		})
	}

	return pages, total, nil
}
