package docsystem

import (
	"time"
)

// Status is the lifecycle state of a document. Deleted is a soft-delete marker.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived, StatusDeleted:
		return true
	}
	return false
}

// ContentFormat tags how Document.Content is encoded. It is detected once when
// content is written and never re-sniffed on read.
type ContentFormat string

const (
	FormatHTML     ContentFormat = "html"     // rich-text markup from the editor or the model
	FormatLegacy   ContentFormat = "legacy"   // structured node tree (JSON) from the old editor
	FormatMarkdown ContentFormat = "markdown" // lightweight markup or plain text
)

type Document struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organization_id"`
	CreatedBy      string        `json:"created_by"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	ContentFormat  ContentFormat `json:"content_format"`
	PlainText      string        `json:"plain_text"` // derived from Content on every save
	CategoryID     *string       `json:"category_id"`
	Tags           []string      `json:"tags"`
	Status         Status        `json:"status"`
	Version        int           `json:"version"`
	ParentID       *string       `json:"parent_id"` // previous version, NULL for the root
	IsLatest       bool          `json:"is_latest"`
	Slug           string        `json:"slug"` // shared by every version in a chain
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// HasTags reports whether every tag in want is present on the document.
func (d *Document) HasTags(want []string) bool {
	for _, w := range want {
		found := false
		for _, t := range d.Tags {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// DocumentFilter narrows document listings. OrganizationID is always required.
type DocumentFilter struct {
	OrganizationID string
	IDs            []string
	CategoryID     *string
	Uncategorized  bool // category IS NULL
	Tags           []string
	Status         *Status
	IncludeDeleted bool
	LatestOnly     bool
	Search         string
	Limit          int
	Offset         int
}

// DocumentPage is one page of a document listing.
type DocumentPage struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}
