// Package extract converts stored course files into plain text for the
// ingestion pipeline. One extractor per file format, selected by extension.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/innovorex/campuskb/internal/domain"
)

// Extractor converts a single file format into plain text.
type Extractor interface {
	// Extensions returns the lowercase extensions (without dot) handled.
	Extensions() []string
	// Extract reads the file at path and returns its plain text.
	Extract(ctx context.Context, path string) (string, error)
}

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry builds a registry from the given extractors. Later extractors
// win on extension collisions.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			r.byExt[strings.ToLower(ext)] = e
		}
	}
	return r
}

// Default returns a registry covering txt, pdf, docx, and pptx.
func Default() *Registry {
	return NewRegistry(
		NewPlainText(),
		NewPDF(),
		NewDocx(),
		NewPptx(),
	)
}

// Supported reports whether files with the given extension can be extracted.
func (r *Registry) Supported(ext string) bool {
	_, ok := r.byExt[strings.ToLower(ext)]
	return ok
}

// Extensions returns all supported extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}

// Extract runs the extractor registered for ext against the file at path.
func (r *Registry) Extract(ctx context.Context, ext, path string) (string, error) {
	e, ok := r.byExt[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("no extractor for %q: %w", ext, domain.ErrUnsupportedFormat)
	}
	text, err := e.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", ext, err)
	}
	return text, nil
}
