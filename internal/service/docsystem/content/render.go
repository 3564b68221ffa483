package content

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"textvault/internal/domain/models/docsystem"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
)

var legacyTags = map[string]string{
	"paragraph":     "p",
	"heading-one":   "h1",
	"heading-two":   "h2",
	"heading-three": "h3",
	"block-quote":   "blockquote",
	"bulleted-list": "ul",
	"numbered-list": "ol",
	"list-item":     "li",
}

// ToHTML renders content stored in format as HTML. The result is not
// sanitized.
func ToHTML(content string, format docsystem.ContentFormat) (string, error) {
	switch format {
	case docsystem.FormatHTML:
		return content, nil
	case docsystem.FormatLegacy:
		nodes, ok := ParseLegacy(content)
		if !ok {
			return "", fmt.Errorf("content is not a valid node tree")
		}
		return LegacyToHTML(nodes), nil
	default:
		return MarkdownToHTML(content)
	}
}

// MarkdownToHTML renders Markdown with the GFM extensions.
func MarkdownToHTML(s string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// LegacyToHTML renders a node tree. Unknown element types render their
// children without a wrapper.
func LegacyToHTML(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeNode(&b, n)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	if n.Text != nil {
		writeLeaf(b, n)
		return
	}

	if n.Type == "link" && n.URL != "" {
		fmt.Fprintf(b, `<a href="%s">`, html.EscapeString(n.URL))
		for _, c := range n.Children {
			writeNode(b, c)
		}
		b.WriteString("</a>")
		return
	}

	tag, ok := legacyTags[n.Type]
	if ok {
		b.WriteString("<" + tag + ">")
	}
	for _, c := range n.Children {
		writeNode(b, c)
	}
	if ok {
		b.WriteString("</" + tag + ">")
	}
}

func writeLeaf(b *strings.Builder, n Node) {
	text := html.EscapeString(*n.Text)
	if n.Code {
		text = "<code>" + text + "</code>"
	}
	if n.Underline {
		text = "<u>" + text + "</u>"
	}
	if n.Italic {
		text = "<em>" + text + "</em>"
	}
	if n.Bold {
		text = "<strong>" + text + "</strong>"
	}
	b.WriteString(text)
}
