// Package content detects how document content is encoded and converts it
// to plain text and HTML.
//
// Content arrives in three shapes: HTML from the editor and the model, the
// legacy JSON node tree written by the old editor, and Markdown (which covers
// plain text). The shape is detected once on save and stored on the document
// as its ContentFormat.
package content

import (
	"encoding/json"
	"regexp"
	"strings"

	"textvault/internal/domain/models/docsystem"
)

var htmlStart = regexp.MustCompile(`^\s*<[a-zA-Z]+[^>]*>`)

// Node is one element or leaf of the legacy node tree. Leaves carry Text and
// marks; elements carry Type and Children.
type Node struct {
	Type      string  `json:"type,omitempty"`
	Text      *string `json:"text,omitempty"`
	Children  []Node  `json:"children,omitempty"`
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Underline bool    `json:"underline,omitempty"`
	Code      bool    `json:"code,omitempty"`
	URL       string  `json:"url,omitempty"`
}

// Detect reports the encoding of content. Anything that is neither HTML nor
// a parseable node tree is Markdown.
func Detect(content string) docsystem.ContentFormat {
	if htmlStart.MatchString(content) {
		return docsystem.FormatHTML
	}
	if _, ok := ParseLegacy(content); ok {
		return docsystem.FormatLegacy
	}
	return docsystem.FormatMarkdown
}

// ParseLegacy decodes a node tree. A single top-level object is returned as
// a one-element slice.
func ParseLegacy(content string) ([]Node, bool) {
	trimmed := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(trimmed, "["):
		var nodes []Node
		if err := json.Unmarshal([]byte(trimmed), &nodes); err != nil {
			return nil, false
		}
		return nodes, true
	case strings.HasPrefix(trimmed, "{"):
		var node Node
		if err := json.Unmarshal([]byte(trimmed), &node); err != nil {
			return nil, false
		}
		return []Node{node}, true
	}
	return nil, false
}
