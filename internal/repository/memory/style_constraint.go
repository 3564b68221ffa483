package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"textvault/internal/domain"
	models "textvault/internal/domain/models/llm"
	llmRepo "textvault/internal/domain/repositories/llm"
)

// StyleConstraintRepository implements llmRepo.StyleConstraintRepository
type StyleConstraintRepository struct {
	store *Store
}

// NewStyleConstraintRepository creates a style constraint repository on the store
func NewStyleConstraintRepository(store *Store) llmRepo.StyleConstraintRepository {
	return &StyleConstraintRepository{store: store}
}

func (r *StyleConstraintRepository) Create(ctx context.Context, sc *models.StyleConstraint) error {
	return r.store.write(ctx, func() error {
		refs := dedupe(sc.ReferenceDocumentIDs)
		for _, id := range refs {
			if _, ok := r.store.documents[id]; !ok {
				return domain.NewValidationError("style constraint references an unknown document")
			}
		}
		sort.Strings(refs)
		sc.ReferenceDocumentIDs = refs
		sc.ID = uuid.NewString()
		now := r.store.tick()
		sc.CreatedAt, sc.UpdatedAt = now, now
		r.store.styles[sc.ID] = cloneStyle(sc)
		return nil
	})
}

func (r *StyleConstraintRepository) GetByID(ctx context.Context, id, orgID string) (*models.StyleConstraint, error) {
	var out *models.StyleConstraint
	r.store.read(func() {
		if sc, ok := r.store.styles[id]; ok && visibleTo(sc, orgID) {
			out = cloneStyle(sc)
		}
	})
	if out == nil {
		return nil, fmt.Errorf("style constraint %s: %w", id, domain.ErrNotFound)
	}
	return out, nil
}

func (r *StyleConstraintRepository) FindByExactReferenceSet(ctx context.Context, orgID string, docIDs []string) (*models.StyleConstraint, error) {
	want := dedupe(docIDs)
	var best *models.StyleConstraint
	if len(want) > 0 {
		r.store.read(func() {
			for _, sc := range r.store.styles {
				if !sc.IsActive || !visibleTo(sc, orgID) || !sameSet(sc.ReferenceDocumentIDs, want) {
					continue
				}
				if best == nil || sc.CreatedAt.After(best.CreatedAt) {
					best = sc
				}
			}
			if best != nil {
				best = cloneStyle(best)
			}
		})
	}
	if best == nil {
		return nil, fmt.Errorf("style constraint for reference set: %w", domain.ErrNotFound)
	}
	return best, nil
}

func (r *StyleConstraintRepository) List(ctx context.Context, orgID string, includeInactive bool) ([]models.StyleConstraint, error) {
	out := []models.StyleConstraint{}
	r.store.read(func() {
		for _, sc := range r.store.styles {
			if visibleTo(sc, orgID) && (sc.IsActive || includeInactive) {
				out = append(out, *cloneStyle(sc))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *StyleConstraintRepository) SetActive(ctx context.Context, id, orgID string, active bool) error {
	return r.store.write(ctx, func() error {
		sc, ok := r.store.styles[id]
		if !ok || sc.OrganizationID == nil || *sc.OrganizationID != orgID {
			return fmt.Errorf("style constraint %s: %w", id, domain.ErrNotFound)
		}
		sc.IsActive = active
		sc.UpdatedAt = r.store.tick()
		return nil
	})
}

func visibleTo(sc *models.StyleConstraint, orgID string) bool {
	return sc.OrganizationID == nil || *sc.OrganizationID == orgID
}

func sameSet(have, want []string) bool {
	if len(have) != len(want) {
		return false
	}
	for _, id := range have {
		if !contains(want, id) {
			return false
		}
	}
	return true
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
