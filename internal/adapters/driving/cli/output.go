package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// snippetLen caps passage previews in text output.
const snippetLen = 160

// passageJSON is the JSON shape of a retrieved chunk.
type passageJSON struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	URI        string  `json:"uri,omitempty"`
	Page       int     `json:"page"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

func toPassages(result domain.RetrievalResult) []passageJSON {
	out := make([]passageJSON, len(result))
	for i, sc := range result {
		out[i] = passageJSON{
			DocumentID: sc.Chunk.DocumentID,
			Title:      sc.Chunk.Metadata[domain.MetadataTitle],
			URI:        sc.Chunk.Metadata[domain.MetadataURI],
			Page:       sc.Chunk.PageIndex + 1,
			Score:      sc.Score,
			Content:    sc.Chunk.Content,
		}
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// printSources lists retrieved chunks as numbered citations.
func printSources(cmd *cobra.Command, st *styles, result domain.RetrievalResult, withSnippet bool) {
	for i, sc := range result {
		cmd.Printf("  [%d] %s, page %d %s\n", i+1, sourceLabel(sc.Chunk), sc.Chunk.PageIndex+1,
			st.Muted.Render(fmt.Sprintf("(%.2f)", sc.Score)))
		if withSnippet {
			cmd.Printf("      %s\n", snippet(sc.Chunk.Content))
		}
	}
}

func sourceLabel(c domain.Chunk) string {
	if title := c.Metadata[domain.MetadataTitle]; title != "" {
		return title
	}
	if uri := c.Metadata[domain.MetadataURI]; uri != "" {
		return filepath.Base(uri)
	}
	return c.DocumentID
}

// snippet collapses whitespace and truncates to snippetLen runes.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen]) + "..."
}
