// Package extractors routes corpus files to format-specific text
// extractors and provides the shared text cleanup they apply before
// chunking.
package extractors

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corpusqa/corpusqa-cli/internal/core/domain"
	"github.com/corpusqa/corpusqa-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry creates a registry over the given extractors. Later
// extractors win when extensions collide.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	byExt := make(map[string]driven.Extractor)
	for _, e := range extractors {
		for _, ext := range e.SupportedExtensions() {
			byExt[strings.ToLower(ext)] = e
		}
	}
	return &Registry{byExt: byExt}
}

// ExtractorFor returns the extractor for the path's extension.
func (r *Registry) ExtractorFor(path string) (driven.Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for %q", domain.ErrNotFound, ext)
	}
	return e, nil
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
