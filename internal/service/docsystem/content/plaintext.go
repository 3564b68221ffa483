package content

import (
	"html"
	"regexp"
	"strings"

	"textvault/internal/domain/models/docsystem"
)

var (
	anyTag     = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)

	mdHeading    = regexp.MustCompile(`(?m)^#+\s+`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdCodeBlock  = regexp.MustCompile("```[a-z]*\\n([\\s\\S]*?)\\n```")
	mdInlineCode = regexp.MustCompile("`([^`]+)`")
	mdQuote      = regexp.MustCompile(`(?m)^>\s+`)
	mdBullet     = regexp.MustCompile(`(?m)^[\*\-+]\s+`)
	mdNumbered   = regexp.MustCompile(`(?m)^\d+\.\s+`)

	emphasis = strings.NewReplacer("**", "", "__", "", "*", "", "_", "")
)

// PlainText derives the search text of content stored in format.
func PlainText(content string, format docsystem.ContentFormat) string {
	if content == "" {
		return ""
	}
	switch format {
	case docsystem.FormatHTML:
		return StripTags(content)
	case docsystem.FormatLegacy:
		if nodes, ok := ParseLegacy(content); ok {
			return legacyText(nodes)
		}
	}
	return markdownText(content)
}

// StripTags replaces every tag with a space, decodes entities and collapses
// whitespace.
func StripTags(s string) string {
	s = anyTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func legacyText(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, nodeText(n))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func nodeText(n Node) string {
	if n.Text != nil {
		return *n.Text
	}
	if len(n.Children) == 0 {
		return ""
	}
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		parts = append(parts, nodeText(c))
	}
	return strings.Join(parts, " ")
}

func markdownText(s string) string {
	s = mdHeading.ReplaceAllString(s, "")
	s = emphasis.Replace(s)
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdCodeBlock.ReplaceAllString(s, "$1")
	s = mdInlineCode.ReplaceAllString(s, "$1")
	s = mdQuote.ReplaceAllString(s, "")
	s = mdBullet.ReplaceAllString(s, "")
	s = mdNumbered.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
