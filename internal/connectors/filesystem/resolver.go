package filesystem

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// LocalPath turns a command-line source into a filesystem path. It accepts
// file:// URIs (percent-escapes decoded), a leading ~/ for the home
// directory, and bare paths, which pass through unchanged.
func LocalPath(uri string) string {
	if rest, ok := strings.CutPrefix(uri, fileScheme); ok {
		if decoded, err := url.PathUnescape(rest); err == nil {
			return decoded
		}
		return rest
	}

	if rest, ok := strings.CutPrefix(uri, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return uri
}
