package generation

import (
	"html"
	"regexp"
	"strings"

	"textvault/internal/config"
	"textvault/internal/service/docsystem/content"
)

var (
	interTagSpace = regexp.MustCompile(`>\s+<`)
	h1Heading     = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	quotedTitle   = regexp.MustCompile(`^["'](.*)["']$`)
)

// FormatForDisplay normalizes model output into editor-ready HTML: Unix line
// endings, one tag per line, a trailing newline, and a paragraph around bare
// text.
func FormatForDisplay(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = interTagSpace.ReplaceAllString(text, ">\n<")
	text = strings.TrimLeft(text, " \t\r\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if !strings.HasPrefix(text, "<") {
		text = "<p>" + strings.TrimRight(text, "\n") + "</p>\n"
	}
	return text
}

// ExtractH1Title returns the text of the first <h1>, or "".
func ExtractH1Title(markup string) string {
	m := h1Heading.FindStringSubmatch(markup)
	if m == nil {
		return ""
	}
	return content.StripTags(m[1])
}

// TitleSource is the text the title-generation call sees: tags removed and
// cut to config.TitleSourceChars characters.
func TitleSource(markup string) string {
	text := content.StripTags(markup)
	if cut := truncateRunes(text, config.TitleSourceChars); len(cut) < len(text) {
		return cut + "..."
	}
	return text
}

// CleanTitle trims whitespace and one pair of surrounding quotes.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if m := quotedTitle.FindStringSubmatch(title); m != nil {
		title = strings.TrimSpace(m[1])
	}
	return html.UnescapeString(title)
}

func limitTitle(title string) string {
	return strings.TrimSpace(truncateRunes(title, config.MaxDocumentTitleLength))
}
