package docsystem

import (
	"context"

	models "textvault/internal/domain/models/docsystem"
)

// DocumentRepository defines data access for documents and their version chains.
// Every lookup is scoped to an organization.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error

	GetByID(ctx context.Context, id, orgID string) (*models.Document, error)

	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	// Must be called inside TransactionManager.ExecTx.
	GetByIDForUpdate(ctx context.Context, id, orgID string) (*models.Document, error)

	// GetLatestBySlug returns the head of the chain identified by slug.
	GetLatestBySlug(ctx context.Context, orgID, slug string) (*models.Document, error)
	GetBySlugAndVersion(ctx context.Context, orgID, slug string, version int) (*models.Document, error)

	// SlugTaken reports whether any document in the organization uses slug.
	SlugTaken(ctx context.Context, orgID, slug string) (bool, error)

	// SetLatest flips the is_latest flag of a single row.
	SetLatest(ctx context.Context, id string, latest bool) error

	List(ctx context.Context, filter *models.DocumentFilter) ([]models.Document, int, error)

	UpdateStatus(ctx context.Context, orgID string, ids []string, status models.Status) (int, error)
	UpdateCategory(ctx context.Context, orgID string, ids []string, categoryID *string) (int, error)

	// DeletePermanently removes rows. Children of removed rows lose their parent link.
	DeletePermanently(ctx context.Context, orgID string, ids []string) (int, error)
}
