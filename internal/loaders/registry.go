package loaders

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.LoaderRegistry = (*Registry)(nil)

// Registry dispatches paths to loaders by file extension.
// Later registrations win for a shared extension.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]driven.DocumentLoader
}

// NewRegistry creates a registry holding the given loaders.
func NewRegistry(loaders ...driven.DocumentLoader) *Registry {
	r := &Registry{loaders: make(map[string]driven.DocumentLoader)}
	for _, l := range loaders {
		r.Register(l)
	}
	return r
}

// Register adds a loader for its extensions.
func (r *Registry) Register(loader driven.DocumentLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range loader.Extensions() {
		r.loaders[strings.ToLower(ext)] = loader
	}
}

// For returns the loader for path's extension.
func (r *Registry) For(path string) (driven.DocumentLoader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no loader for %q", domain.ErrUnsupportedType, ext)
	}
	return loader, nil
}

// Supports reports whether a loader is registered for path's extension.
func (r *Registry) Supports(path string) bool {
	_, err := r.For(path)
	return err == nil
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
