package converter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"textvault/internal/domain"
	"textvault/internal/domain/models/docsystem"
	docsysSvc "textvault/internal/domain/services/docsystem"
	"textvault/internal/service/docsystem/content"
	"textvault/internal/service/docsystem/converter/sanitizer"
)

// Exporter renders a stored document into one output format.
type Exporter interface {
	Format() string
	ContentType() string
	Extension() string
	Export(ctx context.Context, doc *docsystem.Document) (string, error)
}

// Registry routes export requests by format name.
//
// Thread-safe for concurrent access.
type Registry struct {
	mu        sync.RWMutex
	exporters map[string]Exporter
}

// NewRegistry creates a registry with the html, markdown and text exporters.
func NewRegistry(s *sanitizer.HTMLSanitizer) *Registry {
	r := &Registry{exporters: make(map[string]Exporter)}
	r.Register(NewHTMLExporter(s))
	r.Register(NewMarkdownExporter(s))
	r.Register(NewTextExporter())
	return r
}

// Register adds an exporter. Format names are case-insensitive.
func (r *Registry) Register(e Exporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exporters[strings.ToLower(e.Format())] = e
}

// Get returns the exporter for format, or nil.
func (r *Registry) Get(format string) Exporter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exporters[strings.ToLower(format)]
}

// Export renders doc as format. An unknown format is a validation error.
func (r *Registry) Export(ctx context.Context, doc *docsystem.Document, format string) (*docsysSvc.ExportResult, error) {
	e := r.Get(format)
	if e == nil {
		return nil, domain.NewValidationError("unsupported export format %q, must be one of: %s",
			format, strings.Join(r.Formats(), ", "))
	}

	body, err := e.Export(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("export %s as %s: %w", doc.Slug, e.Format(), err)
	}

	return &docsysSvc.ExportResult{
		Format:      e.Format(),
		ContentType: e.ContentType(),
		Filename:    doc.Slug + e.Extension(),
		Body:        body,
	}, nil
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.exporters))
	for f := range r.exporters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// formatOf returns the stored format, detecting it for rows written before
// the format was recorded.
func formatOf(doc *docsystem.Document) docsystem.ContentFormat {
	if doc.ContentFormat != "" {
		return doc.ContentFormat
	}
	return content.Detect(doc.Content)
}
