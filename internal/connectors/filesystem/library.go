package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/lexrag/internal/logger"
)

// CopyToLibrary copies each source into dir and returns one path per source,
// in input order. Sources already inside dir are returned unchanged, and a
// file of the same name from an earlier call is overwritten.
//
// Two sources in one batch that share a base name get distinct names
// (law.txt, law-2.txt). A source that cannot be copied keeps its original
// path so the ingest reports it with the rest of the batch. Only a library
// directory that cannot be created fails the call.
func CopyToLibrary(dir string, sources []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating library %s: %w", dir, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]string) // destination name -> absolute source
	for _, src := range sources {
		if absSrc, err := filepath.Abs(src); err == nil && filepath.Dir(absSrc) == absDir {
			taken[filepath.Base(absSrc)] = absSrc
		}
	}

	copied := make([]string, 0, len(sources))
	for _, src := range sources {
		absSrc, err := filepath.Abs(src)
		if err != nil {
			logger.Warn("Not copying %s: %v", src, err)
			copied = append(copied, src)
			continue
		}
		if filepath.Dir(absSrc) == absDir {
			copied = append(copied, src)
			continue
		}

		dst := filepath.Join(dir, libraryName(taken, absSrc))
		if err := copyFile(src, dst); err != nil {
			logger.Warn("Not copying %s: %v", src, err)
			copied = append(copied, src)
			continue
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

// libraryName picks the destination name for src, adding a numeric suffix
// when another source of the batch already claimed the base name.
func libraryName(taken map[string]string, src string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := base
	for n := 2; ; n++ {
		owner, ok := taken[name]
		if !ok || owner == src {
			taken[name] = src
			return name
		}
		name = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
