package llm

import (
	"context"

	models "textvault/internal/domain/models/llm"
)

// StyleConstraintRepository defines data access for style constraints.
// Lookups see the organization's rows plus global rows.
type StyleConstraintRepository interface {
	// Create inserts the constraint and its reference document links.
	Create(ctx context.Context, sc *models.StyleConstraint) error
	GetByID(ctx context.Context, id, orgID string) (*models.StyleConstraint, error)

	// FindByExactReferenceSet returns the newest active constraint whose
	// reference documents are exactly docIDs (order-independent).
	// Returns domain.ErrNotFound when there is none.
	FindByExactReferenceSet(ctx context.Context, orgID string, docIDs []string) (*models.StyleConstraint, error)

	List(ctx context.Context, orgID string, includeInactive bool) ([]models.StyleConstraint, error)
	SetActive(ctx context.Context, id, orgID string, active bool) error
}
