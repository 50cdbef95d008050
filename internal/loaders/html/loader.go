// Package html loads HTML pages, such as treaty texts saved from the web,
// as single-page documents.
package html

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/loaders"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader handles HTML documents.
type Loader struct{}

// New creates a new HTML loader.
func New() *Loader {
	return &Loader{}
}

// Name returns the loader name.
func (l *Loader) Name() string {
	return "html"
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Elements that never carry document text.
const noiseSelector = "head, script, style, noscript, svg, template, nav, footer"

// blockElements start a new line in the extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "table": true, "blockquote": true, "pre": true,
	"dt": true, "dd": true, "br": true, "hr": true,
}

var multiSpaces = regexp.MustCompile(`[ \t\r\f\v]+`)

// Load reads the file at path and returns its visible text as one page.
func (l *Loader) Load(_ context.Context, path string) (*domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
	}
	defer f.Close()

	page, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrSourceUnreadable, path, err)
	}

	title := strings.TrimSpace(page.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(page.Find("h1").First().Text())
	}
	if title == "" {
		title = loaders.TitleFromPath(path)
	}

	page.Find(noiseSelector).Remove()

	var b strings.Builder
	writeText(page.Selection, &b)
	text := cleanText(b.String())

	doc := &domain.Document{
		ID:       loaders.DocumentID(path),
		URI:      path,
		Title:    title,
		Metadata: map[string]string{"loader": "html"},
		LoadedAt: time.Now(),
	}
	if lang, ok := page.Find("html").Attr("lang"); ok && lang != "" {
		doc.Metadata["lang"] = lang
	}
	if text != "" {
		doc.Pages = []domain.Page{{DocumentID: doc.ID, Index: 0, Text: text}}
	}

	return doc, nil
}

// writeText walks the node tree in document order, breaking lines around
// block elements.
func writeText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if name == "#text" {
			b.WriteString(strings.ReplaceAll(s.Text(), "\n", " "))
			return
		}
		block := blockElements[name]
		if block {
			b.WriteString("\n")
		}
		writeText(s, b)
		if block {
			b.WriteString("\n")
		}
	})
}

// cleanText collapses runs of spaces and drops blank lines.
func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(multiSpaces.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
