package converter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/domain"
	"textvault/internal/domain/models/docsystem"
	"textvault/internal/service/docsystem/converter/sanitizer"
)

func TestExport(t *testing.T) {
	r := NewRegistry(sanitizer.NewHTMLSanitizer())
	ctx := context.Background()

	htmlDoc := &docsystem.Document{
		Slug:          "report",
		Content:       `<h1>Report</h1><p>Hello <strong>world</strong></p><script>alert(1)</script>`,
		ContentFormat: docsystem.FormatHTML,
		PlainText:     "Report Hello world",
	}
	legacyDoc := &docsystem.Document{
		Slug:    "old",
		Content: `[{"type":"paragraph","children":[{"text":"Legacy","bold":true}]}]`,
	}
	markdownDoc := &docsystem.Document{
		Slug:          "notes",
		Content:       "# Notes\n\n- one",
		ContentFormat: docsystem.FormatMarkdown,
	}

	tests := []struct {
		name     string
		doc      *docsystem.Document
		format   string
		contains string
		excludes string
		filename string
	}{
		{"html is sanitized", htmlDoc, "html", "<strong>world</strong>", "<script", "report.html"},
		{"html to markdown", htmlDoc, "markdown", "**world**", "alert", "report.md"},
		{"legacy to html", legacyDoc, "HTML", "<p><strong>Legacy</strong></p>", "", "old.html"},
		{"legacy to markdown", legacyDoc, "markdown", "**Legacy**", "", "old.md"},
		{"markdown passthrough", markdownDoc, "markdown", "# Notes\n\n- one", "", "notes.md"},
		{"markdown to html", markdownDoc, "html", "<li>one</li>", "", "notes.html"},
		{"stored plain text", htmlDoc, "text", "Report Hello world", "<", "report.txt"},
		{"derived plain text", legacyDoc, "text", "Legacy", "", "old.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Export(ctx, tt.doc, tt.format)
			require.NoError(t, err)
			assert.Contains(t, got.Body, tt.contains)
			if tt.excludes != "" {
				assert.NotContains(t, got.Body, tt.excludes)
			}
			assert.Equal(t, tt.filename, got.Filename)
			assert.NotEmpty(t, got.ContentType)
		})
	}
}

func TestExportUnknownFormat(t *testing.T) {
	r := NewRegistry(sanitizer.NewHTMLSanitizer())
	_, err := r.Export(context.Background(), &docsystem.Document{Slug: "x"}, "pdf")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, []string{"html", "markdown", "text"}, r.Formats())
}
