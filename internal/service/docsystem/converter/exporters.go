package converter

import (
	"context"
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"textvault/internal/domain/models/docsystem"
	"textvault/internal/service/docsystem/content"
	"textvault/internal/service/docsystem/converter/sanitizer"
)

// htmlExporter renders any stored format as sanitized HTML.
type htmlExporter struct {
	sanitizer *sanitizer.HTMLSanitizer
}

// NewHTMLExporter creates the html exporter.
func NewHTMLExporter(s *sanitizer.HTMLSanitizer) Exporter {
	return &htmlExporter{sanitizer: s}
}

func (e *htmlExporter) Format() string      { return "html" }
func (e *htmlExporter) ContentType() string { return "text/html; charset=utf-8" }
func (e *htmlExporter) Extension() string   { return ".html" }

func (e *htmlExporter) Export(ctx context.Context, doc *docsystem.Document) (string, error) {
	rendered, err := content.ToHTML(doc.Content, formatOf(doc))
	if err != nil {
		return "", err
	}
	return e.sanitizer.Sanitize(rendered), nil
}

// markdownExporter passes Markdown through and converts everything else in
// two stages: render to sanitized HTML, then HTML to Markdown.
type markdownExporter struct {
	sanitizer *sanitizer.HTMLSanitizer
	converter *md.Converter
}

// NewMarkdownExporter creates the markdown exporter.
func NewMarkdownExporter(s *sanitizer.HTMLSanitizer) Exporter {
	return &markdownExporter{
		sanitizer: s,
		converter: md.NewConverter("", true, nil),
	}
}

func (e *markdownExporter) Format() string      { return "markdown" }
func (e *markdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }
func (e *markdownExporter) Extension() string   { return ".md" }

func (e *markdownExporter) Export(ctx context.Context, doc *docsystem.Document) (string, error) {
	format := formatOf(doc)
	if format == docsystem.FormatMarkdown {
		return doc.Content, nil
	}

	rendered, err := content.ToHTML(doc.Content, format)
	if err != nil {
		return "", err
	}
	markdown, err := e.converter.ConvertString(e.sanitizer.Sanitize(rendered))
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return markdown, nil
}

// textExporter returns the derived plain text.
type textExporter struct{}

// NewTextExporter creates the text exporter.
func NewTextExporter() Exporter {
	return &textExporter{}
}

func (e *textExporter) Format() string      { return "text" }
func (e *textExporter) ContentType() string { return "text/plain; charset=utf-8" }
func (e *textExporter) Extension() string   { return ".txt" }

func (e *textExporter) Export(ctx context.Context, doc *docsystem.Document) (string, error) {
	if doc.PlainText != "" {
		return doc.PlainText, nil
	}
	return content.PlainText(doc.Content, formatOf(doc)), nil
}
