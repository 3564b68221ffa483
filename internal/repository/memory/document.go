package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"textvault/internal/domain"
	models "textvault/internal/domain/models/docsystem"
	docsysRepo "textvault/internal/domain/repositories/docsystem"
)

// DocumentRepository implements docsysRepo.DocumentRepository
type DocumentRepository struct {
	store *Store
}

// NewDocumentRepository creates a document repository on the store
func NewDocumentRepository(store *Store) docsysRepo.DocumentRepository {
	return &DocumentRepository{store: store}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.store.write(ctx, func() error {
		if doc.IsLatest && r.latestLocked(doc.OrganizationID, doc.Slug) != nil {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document with slug '%s' already exists", doc.Slug),
				ResourceType: "document",
				ResourceID:   doc.Slug,
			}
		}
		doc.ID = uuid.NewString()
		now := r.store.tick()
		doc.CreatedAt, doc.UpdatedAt = now, now
		r.store.documents[doc.ID] = cloneDocument(doc)
		return nil
	})
}

func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	return r.store.write(ctx, func() error {
		stored, ok := r.store.documents[doc.ID]
		if !ok || stored.OrganizationID != doc.OrganizationID {
			return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
		}
		stored.Title = doc.Title
		stored.Content = doc.Content
		stored.ContentFormat = doc.ContentFormat
		stored.PlainText = doc.PlainText
		stored.CategoryID = cloneString(doc.CategoryID)
		stored.Tags = append([]string{}, doc.Tags...)
		stored.Status = doc.Status
		stored.UpdatedAt = r.store.tick()
		doc.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

func (r *DocumentRepository) GetByID(ctx context.Context, id, orgID string) (*models.Document, error) {
	var doc *models.Document
	r.store.read(func() {
		if d, ok := r.store.documents[id]; ok && d.OrganizationID == orgID {
			doc = cloneDocument(d)
		}
	})
	if doc == nil {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

// GetByIDForUpdate needs no row lock here; ExecTx already serializes writers.
func (r *DocumentRepository) GetByIDForUpdate(ctx context.Context, id, orgID string) (*models.Document, error) {
	return r.GetByID(ctx, id, orgID)
}

func (r *DocumentRepository) GetLatestBySlug(ctx context.Context, orgID, slug string) (*models.Document, error) {
	var doc *models.Document
	r.store.read(func() {
		if d := r.latestLocked(orgID, slug); d != nil {
			doc = cloneDocument(d)
		}
	})
	if doc == nil {
		return nil, fmt.Errorf("document '%s': %w", slug, domain.ErrNotFound)
	}
	return doc, nil
}

func (r *DocumentRepository) GetBySlugAndVersion(ctx context.Context, orgID, slug string, version int) (*models.Document, error) {
	var doc *models.Document
	r.store.read(func() {
		for _, d := range r.store.documents {
			if d.OrganizationID == orgID && d.Slug == slug && d.Version == version {
				if doc == nil || d.CreatedAt.After(doc.CreatedAt) {
					doc = d
				}
			}
		}
		if doc != nil {
			doc = cloneDocument(doc)
		}
	})
	if doc == nil {
		return nil, fmt.Errorf("document '%s' version %d: %w", slug, version, domain.ErrNotFound)
	}
	return doc, nil
}

func (r *DocumentRepository) SlugTaken(ctx context.Context, orgID, slug string) (bool, error) {
	taken := false
	r.store.read(func() {
		for _, d := range r.store.documents {
			if d.OrganizationID == orgID && d.Slug == slug {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

func (r *DocumentRepository) SetLatest(ctx context.Context, id string, latest bool) error {
	return r.store.write(ctx, func() error {
		d, ok := r.store.documents[id]
		if !ok {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		if latest && !d.IsLatest {
			if other := r.latestLocked(d.OrganizationID, d.Slug); other != nil {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("document '%s' already has a latest version", d.Slug),
					ResourceType: "document",
					ResourceID:   other.ID,
				}
			}
		}
		d.IsLatest = latest
		d.UpdatedAt = r.store.tick()
		return nil
	})
}

func (r *DocumentRepository) List(ctx context.Context, filter *models.DocumentFilter) ([]models.Document, int, error) {
	matched := []models.Document{}
	r.store.read(func() {
		for _, d := range r.store.documents {
			if matchesFilter(d, filter) {
				matched = append(matched, *cloneDocument(d))
			}
		}
	})

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, orgID string, ids []string, status models.Status) (int, error) {
	return r.bulk(ctx, orgID, ids, func(d *models.Document) {
		d.Status = status
	})
}

func (r *DocumentRepository) UpdateCategory(ctx context.Context, orgID string, ids []string, categoryID *string) (int, error) {
	return r.bulk(ctx, orgID, ids, func(d *models.Document) {
		d.CategoryID = cloneString(categoryID)
	})
}

func (r *DocumentRepository) DeletePermanently(ctx context.Context, orgID string, ids []string) (int, error) {
	deleted := 0
	err := r.store.write(ctx, func() error {
		removed := map[string]bool{}
		for _, id := range ids {
			if d, ok := r.store.documents[id]; ok && d.OrganizationID == orgID {
				delete(r.store.documents, id)
				removed[id] = true
				deleted++
			}
		}
		for _, d := range r.store.documents {
			if d.ParentID != nil && removed[*d.ParentID] {
				d.ParentID = nil
			}
		}
		for _, sc := range r.store.styles {
			kept := sc.ReferenceDocumentIDs[:0]
			for _, id := range sc.ReferenceDocumentIDs {
				if !removed[id] {
					kept = append(kept, id)
				}
			}
			sc.ReferenceDocumentIDs = kept
		}
		return nil
	})
	return deleted, err
}

func (r *DocumentRepository) bulk(ctx context.Context, orgID string, ids []string, fn func(*models.Document)) (int, error) {
	updated := 0
	err := r.store.write(ctx, func() error {
		seen := map[string]bool{}
		for _, id := range ids {
			d, ok := r.store.documents[id]
			if !ok || d.OrganizationID != orgID || seen[id] {
				continue
			}
			seen[id] = true
			fn(d)
			d.UpdatedAt = r.store.tick()
			updated++
		}
		return nil
	})
	return updated, err
}

// latestLocked finds the chain head. Caller must hold the store lock.
func (r *DocumentRepository) latestLocked(orgID, slug string) *models.Document {
	for _, d := range r.store.documents {
		if d.OrganizationID == orgID && d.Slug == slug && d.IsLatest {
			return d
		}
	}
	return nil
}

func matchesFilter(d *models.Document, f *models.DocumentFilter) bool {
	if d.OrganizationID != f.OrganizationID {
		return false
	}
	if len(f.IDs) > 0 && !contains(f.IDs, d.ID) {
		return false
	}
	if f.CategoryID != nil {
		if d.CategoryID == nil || *d.CategoryID != *f.CategoryID {
			return false
		}
	} else if f.Uncategorized && d.CategoryID != nil {
		return false
	}
	if len(f.Tags) > 0 && !d.HasTags(f.Tags) {
		return false
	}
	if f.Status != nil {
		if d.Status != *f.Status {
			return false
		}
	} else if !f.IncludeDeleted && d.Status == models.StatusDeleted {
		return false
	}
	if f.LatestOnly && !d.IsLatest {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(d.Title), needle) &&
			!strings.Contains(strings.ToLower(d.PlainText), needle) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
