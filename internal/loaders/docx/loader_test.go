package docx

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// writeDocx builds a minimal .docx archive with the given parts.
func writeDocx(t *testing.T, name string, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for partName, content := range parts {
		w, err := zw.Create(partName)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return path
}

func body(paragraphs string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + wordNS + `><w:body>` + paragraphs + `</w:body></w:document>`
}

func TestLoader_Metadata(t *testing.T) {
	l := New()
	assert.Equal(t, "docx", l.Name())
	assert.Equal(t, []string{".docx"}, l.Extensions())
}

func TestLoader_Load(t *testing.T) {
	path := writeDocx(t, "echr.docx", map[string]string{
		documentPart: body(
			`<w:p><w:r><w:t>Article 2</w:t></w:r></w:p>` +
				`<w:p><w:r><w:t xml:space="preserve">Everyone's right to life </w:t></w:r>` +
				`<w:r><w:t>shall be protected by law.</w:t></w:r></w:p>` +
				`<w:p><w:r><w:br w:type="page"/></w:r></w:p>` +
				`<w:p><w:r><w:t>Article 3</w:t><w:tab/><w:t>Prohibition of torture</w:t></w:r></w:p>`,
		),
		corePart: `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
			`xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>European Convention on Human Rights</dc:title></cp:coreProperties>`,
	})

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "European Convention on Human Rights", doc.Title)
	assert.Equal(t, "docx", doc.Metadata["loader"])
	require.Len(t, doc.Pages, 2)

	assert.Equal(t, "Article 2\nEveryone's right to life shall be protected by law.", doc.Pages[0].Text)
	assert.Equal(t, 0, doc.Pages[0].Index)
	assert.Equal(t, "Article 3\tProhibition of torture", doc.Pages[1].Text)
	assert.Equal(t, 1, doc.Pages[1].Index)
	assert.Equal(t, doc.ID, doc.Pages[1].DocumentID)
}

func TestLoader_Load_SkipsBlankPages(t *testing.T) {
	path := writeDocx(t, "cover_page.docx", map[string]string{
		documentPart: body(
			`<w:p><w:r><w:br w:type="page"/></w:r></w:p>` +
				`<w:p><w:r><w:t>Only page with text</w:t></w:r></w:p>`,
		),
	})

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "cover page", doc.Title)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 0, doc.Pages[0].Index)
	assert.Equal(t, "Only page with text", doc.Pages[0].Text)
}

func TestLoader_Load_LineBreak(t *testing.T) {
	path := writeDocx(t, "lines.docx", map[string]string{
		documentPart: body(`<w:p><w:r><w:t>first</w:t><w:br/><w:t>second</w:t></w:r></w:p>`),
	})

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "first\nsecond", doc.Pages[0].Text)
}

func TestLoader_Load_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "nope.docx"))
		assert.ErrorIs(t, err, domain.ErrSourceUnreadable)
	})

	t.Run("not a zip archive", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fake.docx")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

		_, err := New().Load(context.Background(), path)
		assert.ErrorIs(t, err, domain.ErrSourceUnreadable)
	})

	t.Run("missing document part", func(t *testing.T) {
		path := writeDocx(t, "empty.docx", map[string]string{"[Content_Types].xml": "<Types/>"})

		_, err := New().Load(context.Background(), path)
		assert.ErrorIs(t, err, domain.ErrSourceUnreadable)
		assert.ErrorIs(t, err, errMissingPart)
	})

	t.Run("malformed xml", func(t *testing.T) {
		path := writeDocx(t, "broken.docx", map[string]string{documentPart: "<w:document><w:body>"})

		_, err := New().Load(context.Background(), path)
		assert.ErrorIs(t, err, domain.ErrSourceUnreadable)
	})
}
