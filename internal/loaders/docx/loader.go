// Package docx loads Word documents. Explicit page breaks split the text
// into pages so retrieved passages can cite a page number.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/loaders"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Loader handles DOCX documents.
type Loader struct{}

// New creates a new DOCX loader.
func New() *Loader {
	return &Loader{}
}

// Name returns the loader name.
func (l *Loader) Name() string {
	return "docx"
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".docx"}
}

// Load reads the document body, one page per explicit page break.
// Pages without text are dropped and the remaining pages renumbered.
func (l *Loader) Load(_ context.Context, path string) (*domain.Document, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnreadable, err)
	}
	defer archive.Close()

	body, err := readPart(&archive.Reader, documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnreadable, path, err)
	}

	texts, err := extractPages(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnreadable, path, err)
	}

	doc := &domain.Document{
		ID:       loaders.DocumentID(path),
		URI:      path,
		Title:    extractTitle(&archive.Reader, path),
		Metadata: map[string]string{"loader": "docx"},
		LoadedAt: time.Now(),
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, domain.Page{
			DocumentID: doc.ID,
			Index:      len(doc.Pages),
			Text:       text,
		})
	}

	return doc, nil
}

var errMissingPart = errors.New("missing part")

// readPart returns the contents of the named archive member.
func readPart(archive *zip.Reader, name string) ([]byte, error) {
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w: %s", errMissingPart, name)
}

// extractPages streams word/document.xml. Paragraphs end lines, tabs and
// line breaks are kept, and <w:br w:type="page"/> starts a new page.
func extractPages(body []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		pages  []string
		page   strings.Builder
		inText bool
	)
	flush := func() {
		pages = append(pages, strings.TrimSpace(page.String()))
		page.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				page.WriteString("\t")
			case "br", "cr":
				if attr(t, "type") == "page" {
					flush()
				} else {
					page.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				page.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				page.Write(t)
			}
		}
	}
	flush()

	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// coreProperties is the subset of docProps/core.xml we read.
type coreProperties struct {
	Title string `xml:"title"`
}

// extractTitle reads the document title property, falling back to the file name.
func extractTitle(archive *zip.Reader, path string) string {
	data, err := readPart(archive, corePart)
	if err == nil {
		var core coreProperties
		if err := xml.Unmarshal(data, &core); err == nil {
			if title := strings.TrimSpace(core.Title); title != "" {
				return title
			}
		}
	}
	return loaders.TitleFromPath(path)
}
