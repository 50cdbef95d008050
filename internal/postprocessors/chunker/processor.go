// Package chunker provides a fixed-size sliding-window text chunker.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// chunkNamespace seeds deterministic chunk identifiers.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lexrag/chunk"))

// Processor splits page text into overlapping fixed-size chunks.
// Sizes and offsets are measured in characters (runes), not bytes.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrInvalidConfiguration unless 0 <= overlap < size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := domain.ValidateChunking(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits every page of doc into chunks, in page order.
func (p *Processor) Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	var chunks []domain.Chunk
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, c := range p.SplitPage(page) {
			c.Metadata = map[string]string{
				domain.MetadataURI:   doc.URI,
				domain.MetadataTitle: doc.Title,
			}
			chunks = append(chunks, c)
		}
	}

	return chunks, nil
}

// SplitPage slides a window of chunkSize characters over the page text with a
// step of chunkSize - overlap. The last window is truncated and ends the page,
// so every chunk shares exactly overlap characters with its predecessor, and
// the chunks rebuild the page text when the overlaps are dropped.
//
// The one exception is a page that is empty or only whitespace: it yields no
// chunks, since there is nothing to embed or retrieve.
func (p *Processor) SplitPage(page domain.Page) []domain.Chunk {
	if strings.TrimSpace(page.Text) == "" {
		return nil
	}

	text := []rune(page.Text)
	textLen := len(text)
	step := p.chunkSize - p.overlap

	chunks := make([]domain.Chunk, 0, textLen/step+1)

	for start := 0; start < textLen; start += step {
		end := min(start+p.chunkSize, textLen)

		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(page.DocumentID, page.Index, start),
			DocumentID: page.DocumentID,
			PageIndex:  page.Index,
			Offset:     start,
			Content:    string(text[start:end]),
		})

		if end == textLen {
			break
		}
	}

	return chunks
}

// chunkID derives a stable identifier from the chunk's position in the corpus.
func chunkID(documentID string, page, offset int) string {
	name := fmt.Sprintf("%s/%d/%d", documentID, page, offset)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}
