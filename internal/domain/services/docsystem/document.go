package docsystem

import (
	"context"

	"textvault/internal/domain/models/docsystem"
)

// DocumentService handles document business logic: slugs, plain-text
// derivation and version chains.
type DocumentService interface {
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*docsystem.Document, error)

	// GetDocument returns the latest version for slug, or a specific version when version is set.
	GetDocument(ctx context.Context, orgID, slug string, version *int) (*docsystem.Document, error)
	GetDocumentByID(ctx context.Context, orgID, id string) (*docsystem.Document, error)

	// UpdateDocument edits the latest version in place.
	UpdateDocument(ctx context.Context, orgID, slug string, req *UpdateDocumentRequest) (*docsystem.Document, error)

	// DeleteDocument soft-deletes the latest version (status=deleted).
	DeleteDocument(ctx context.Context, orgID, slug string) error

	ListDocuments(ctx context.Context, filter *docsystem.DocumentFilter) (*docsystem.DocumentPage, error)

	// CreateNewVersion forks the latest version into version+1 atomically.
	CreateNewVersion(ctx context.Context, orgID, slug string, req *CreateVersionRequest) (*docsystem.Document, error)

	// ListVersions returns the chain ordered by version ascending.
	ListVersions(ctx context.Context, orgID, slug string) ([]docsystem.Document, error)

	BulkAction(ctx context.Context, req *BulkActionRequest) (*BulkActionResult, error)

	ExportDocument(ctx context.Context, orgID, slug string, format string) (*ExportResult, error)
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	OrganizationID string   `json:"-"` // Set by handler from auth context
	UserID         string   `json:"-"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	CategoryID     *string  `json:"category_id,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Status         string   `json:"status,omitempty"` // default draft
	Slug           string   `json:"slug,omitempty"`   // derived from title when empty
}

// UpdateDocumentRequest represents a partial document update
type UpdateDocumentRequest struct {
	Title         *string   `json:"title,omitempty"`
	Content       *string   `json:"content,omitempty"`
	CategoryID    *string   `json:"category_id,omitempty"`
	ClearCategory bool      `json:"-"`
	Tags          *[]string `json:"tags,omitempty"`
	Status        *string   `json:"status,omitempty"`
}

// CreateVersionRequest optionally edits the new version while forking it.
// FromVersion names the source explicitly; only the latest version may be forked.
type CreateVersionRequest struct {
	UserID      string  `json:"-"`
	FromVersion *int    `json:"from_version,omitempty"`
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
}

// Bulk actions.
const (
	BulkCategory          = "category"
	BulkTags              = "tags"
	BulkStatus            = "status"
	BulkDelete            = "delete"
	BulkDeletePermanently = "delete-permanently"
)

// BulkActionRequest applies one action to many documents.
type BulkActionRequest struct {
	OrganizationID string   `json:"-"`
	Action         string   `json:"-"` // from the URL
	DocumentIDs    []string `json:"document_ids"`
	CategoryID     *string  `json:"category_id,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Status         string   `json:"status,omitempty"`
}

// BulkActionResult reports how many documents changed.
type BulkActionResult struct {
	Action  string `json:"action"`
	Updated int    `json:"updated"`
}

// ExportResult is a rendered document.
type ExportResult struct {
	Format      string `json:"format"`
	ContentType string `json:"-"`
	Filename    string `json:"filename"`
	Body        string `json:"body"`
}
