package loaders

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// documentNamespace seeds deterministic document identifiers.
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lexrag/document"))

// DocumentID derives a stable identifier from the cleaned absolute path,
// so re-ingesting the same file replaces its previous chunks.
func DocumentID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(documentNamespace, []byte(filepath.Clean(path))).String()
}

// TitleFromPath extracts a human-readable title from a file path.
func TitleFromPath(path string) string {
	filename := filepath.Base(path)

	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
