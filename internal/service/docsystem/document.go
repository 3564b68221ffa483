package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/gosimple/slug"

	"textvault/internal/config"
	"textvault/internal/domain"
	models "textvault/internal/domain/models/docsystem"
	"textvault/internal/domain/repositories"
	docsysRepo "textvault/internal/domain/repositories/docsystem"
	docsysSvc "textvault/internal/domain/services/docsystem"
	"textvault/internal/service/docsystem/content"
	"textvault/internal/service/docsystem/converter"
)

const slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// documentService implements the DocumentService interface
type documentService struct {
	docRepo   docsysRepo.DocumentRepository
	txManager repositories.TransactionManager
	exporters *converter.Registry
	suffix    func() string
	logger    *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo docsysRepo.DocumentRepository,
	txManager repositories.TransactionManager,
	exporters *converter.Registry,
	logger *slog.Logger,
) docsysSvc.DocumentService {
	return &documentService{
		docRepo:   docRepo,
		txManager: txManager,
		exporters: exporters,
		suffix:    randomSuffix,
		logger:    logger,
	}
}

func randomSuffix() string {
	b := make([]byte, config.SlugSuffixLength)
	for i := range b {
		b[i] = slugAlphabet[rand.IntN(len(slugAlphabet))]
	}
	return string(b)
}

// CreateDocument stores version 1 of a new document. Without an explicit slug
// one is derived from the title and suffixed until it is free.
func (s *documentService) CreateDocument(ctx context.Context, req *docsysSvc.CreateDocumentRequest) (*models.Document, error) {
	status := models.Status(req.Status)
	if status == "" {
		status = models.StatusDraft
	}

	doc := &models.Document{
		OrganizationID: req.OrganizationID,
		CreatedBy:      req.UserID,
		Title:          strings.TrimSpace(req.Title),
		Content:        req.Content,
		CategoryID:     normalizeCategory(req.CategoryID),
		Tags:           req.Tags,
		Status:         status,
		Version:        1,
		IsLatest:       true,
	}
	prepareForSave(doc)
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	docSlug, err := s.resolveSlug(ctx, req.OrganizationID, req.Slug, doc.Title)
	if err != nil {
		return nil, err
	}
	doc.Slug = docSlug

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"slug", doc.Slug,
		"org_id", doc.OrganizationID,
		"format", doc.ContentFormat,
	)
	return doc, nil
}

// resolveSlug returns a slug free in the organization. An explicit slug is
// never suffixed; a derived one gets random suffixes for a bounded number of
// attempts, after which the save fails.
func (s *documentService) resolveSlug(ctx context.Context, orgID, explicit, title string) (string, error) {
	if explicit != "" {
		candidate := slug.Make(explicit)
		if candidate == "" {
			return "", domain.NewValidationError("slug %q has no usable characters", explicit)
		}
		taken, err := s.docRepo.SlugTaken(ctx, orgID, candidate)
		if err != nil {
			return "", err
		}
		if taken {
			return "", s.slugConflict(ctx, orgID, candidate)
		}
		return candidate, nil
	}

	base := slug.Make(title)
	if base == "" {
		base = "document"
	}

	candidate := base
	for attempt := 0; ; attempt++ {
		taken, err := s.docRepo.SlugTaken(ctx, orgID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		if attempt == config.MaxSlugAttempts {
			s.logger.Warn("slug collision unresolved",
				"org_id", orgID,
				"base", base,
				"attempts", attempt,
			)
			return "", &domain.ConflictError{
				Message:      fmt.Sprintf("could not find a free slug for '%s' after %d attempts", base, attempt),
				ResourceType: "document",
			}
		}
		candidate = base + "-" + s.suffix()
	}
}

func (s *documentService) slugConflict(ctx context.Context, orgID, docSlug string) error {
	conflict := &domain.ConflictError{
		Message:      fmt.Sprintf("document with slug '%s' already exists", docSlug),
		ResourceType: "document",
		ResourceID:   docSlug,
	}
	if existing, err := s.docRepo.GetLatestBySlug(ctx, orgID, docSlug); err == nil {
		conflict.ResourceID = existing.ID
	}
	return conflict
}

// prepareForSave derives every computed field from the authoritative ones.
func prepareForSave(doc *models.Document) {
	doc.ContentFormat = content.Detect(doc.Content)
	doc.PlainText = content.PlainText(doc.Content, doc.ContentFormat)
	doc.Tags = normalizeTags(doc.Tags)
}

func (s *documentService) GetDocument(ctx context.Context, orgID, docSlug string, version *int) (*models.Document, error) {
	if version != nil {
		return s.docRepo.GetBySlugAndVersion(ctx, orgID, docSlug, *version)
	}
	return s.docRepo.GetLatestBySlug(ctx, orgID, docSlug)
}

func (s *documentService) GetDocumentByID(ctx context.Context, orgID, id string) (*models.Document, error) {
	return s.docRepo.GetByID(ctx, id, orgID)
}

// UpdateDocument edits the latest version in place. The slug never changes.
func (s *documentService) UpdateDocument(ctx context.Context, orgID, docSlug string, req *docsysSvc.UpdateDocumentRequest) (*models.Document, error) {
	doc, err := s.docRepo.GetLatestBySlug(ctx, orgID, docSlug)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	if req.ClearCategory {
		doc.CategoryID = nil
	} else if req.CategoryID != nil {
		doc.CategoryID = normalizeCategory(req.CategoryID)
	}
	if req.Tags != nil {
		doc.Tags = *req.Tags
	}
	if req.Status != nil {
		doc.Status = models.Status(*req.Status)
	}

	prepareForSave(doc)
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	s.logger.Info("document updated",
		"id", doc.ID,
		"slug", doc.Slug,
		"org_id", orgID,
	)
	return doc, nil
}

// DeleteDocument marks the latest version deleted.
func (s *documentService) DeleteDocument(ctx context.Context, orgID, docSlug string) error {
	doc, err := s.docRepo.GetLatestBySlug(ctx, orgID, docSlug)
	if err != nil {
		return err
	}
	if _, err := s.docRepo.UpdateStatus(ctx, orgID, []string{doc.ID}, models.StatusDeleted); err != nil {
		return err
	}

	s.logger.Info("document deleted",
		"id", doc.ID,
		"slug", docSlug,
		"org_id", orgID,
	)
	return nil
}

func (s *documentService) ListDocuments(ctx context.Context, filter *models.DocumentFilter) (*models.DocumentPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = config.DefaultPageSize
	}
	if filter.Limit > config.MaxPageSize {
		filter.Limit = config.MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	docs, total, err := s.docRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.DocumentPage{
		Documents: docs,
		Total:     total,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}, nil
}

// CreateNewVersion forks the latest version into version+1. The source row is
// locked, demoted and the new head inserted in one transaction, so a chain
// never has two latest rows.
func (s *documentService) CreateNewVersion(ctx context.Context, orgID, docSlug string, req *docsysSvc.CreateVersionRequest) (*models.Document, error) {
	var created *models.Document

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var source *models.Document
		var err error
		if req.FromVersion != nil {
			source, err = s.docRepo.GetBySlugAndVersion(txCtx, orgID, docSlug, *req.FromVersion)
		} else {
			source, err = s.docRepo.GetLatestBySlug(txCtx, orgID, docSlug)
		}
		if err != nil {
			return err
		}

		current, err := s.docRepo.GetByIDForUpdate(txCtx, source.ID, orgID)
		if err != nil {
			return err
		}
		if !current.IsLatest {
			return domain.NewValidationError("cannot create a new version from an old version")
		}

		if err := s.docRepo.SetLatest(txCtx, current.ID, false); err != nil {
			return fmt.Errorf("demote version %d: %w", current.Version, err)
		}

		parentID := current.ID
		next := *current
		next.ID = ""
		next.Version = current.Version + 1
		next.ParentID = &parentID
		next.IsLatest = true
		next.Tags = append([]string(nil), current.Tags...)
		if req.UserID != "" {
			next.CreatedBy = req.UserID
		}
		if req.Title != nil {
			next.Title = strings.TrimSpace(*req.Title)
		}
		if req.Content != nil {
			next.Content = *req.Content
		}

		prepareForSave(&next)
		if err := validateDocument(&next); err != nil {
			return err
		}
		if err := s.docRepo.Create(txCtx, &next); err != nil {
			return fmt.Errorf("create version %d: %w", next.Version, err)
		}
		created = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document version created",
		"id", created.ID,
		"slug", created.Slug,
		"version", created.Version,
		"parent_id", *created.ParentID,
	)
	return created, nil
}

// ListVersions walks the parent links from the latest version to the root and
// returns the chain oldest first.
func (s *documentService) ListVersions(ctx context.Context, orgID, docSlug string) ([]models.Document, error) {
	head, err := s.docRepo.GetLatestBySlug(ctx, orgID, docSlug)
	if err != nil {
		return nil, err
	}

	chain := []models.Document{*head}
	seen := map[string]bool{head.ID: true}
	for cur := head; cur.ParentID != nil; {
		if seen[*cur.ParentID] {
			s.logger.Warn("version chain has a cycle", "slug", docSlug, "org_id", orgID, "id", *cur.ParentID)
			break
		}
		parent, err := s.docRepo.GetByID(ctx, *cur.ParentID, orgID)
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		seen[parent.ID] = true
		chain = append(chain, *parent)
		cur = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// BulkAction applies one action to many documents of the organization. Ids of
// other organizations are ignored.
func (s *documentService) BulkAction(ctx context.Context, req *docsysSvc.BulkActionRequest) (*docsysSvc.BulkActionResult, error) {
	if err := validateBulkIDs(req.DocumentIDs); err != nil {
		return nil, err
	}

	var (
		updated int
		err     error
	)
	switch req.Action {
	case docsysSvc.BulkCategory:
		updated, err = s.docRepo.UpdateCategory(ctx, req.OrganizationID, req.DocumentIDs, normalizeCategory(req.CategoryID))
	case docsysSvc.BulkTags:
		updated, err = s.addTags(ctx, req.OrganizationID, req.DocumentIDs, req.Tags)
	case docsysSvc.BulkStatus:
		status := models.Status(req.Status)
		if !status.Valid() {
			return nil, domain.NewValidationError("invalid status %q", req.Status)
		}
		updated, err = s.docRepo.UpdateStatus(ctx, req.OrganizationID, req.DocumentIDs, status)
	case docsysSvc.BulkDelete:
		updated, err = s.docRepo.UpdateStatus(ctx, req.OrganizationID, req.DocumentIDs, models.StatusDeleted)
	case docsysSvc.BulkDeletePermanently:
		updated, err = s.docRepo.DeletePermanently(ctx, req.OrganizationID, req.DocumentIDs)
	default:
		return nil, domain.NewValidationError("unknown bulk action %q", req.Action)
	}
	if err != nil {
		return nil, fmt.Errorf("bulk %s: %w", req.Action, err)
	}

	s.logger.Info("bulk action applied",
		"action", req.Action,
		"org_id", req.OrganizationID,
		"requested", len(req.DocumentIDs),
		"updated", updated,
	)
	return &docsysSvc.BulkActionResult{Action: req.Action, Updated: updated}, nil
}

// addTags merges tags into every document in one transaction.
func (s *documentService) addTags(ctx context.Context, orgID string, ids, tags []string) (int, error) {
	tags = normalizeTags(tags)
	if len(tags) == 0 {
		return 0, domain.NewValidationError("tags must not be empty")
	}

	updated := 0
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		seen := map[string]bool{}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			doc, err := s.docRepo.GetByID(txCtx, id, orgID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			doc.Tags = append(doc.Tags, tags...)
			prepareForSave(doc)
			if err := validateDocument(doc); err != nil {
				return fmt.Errorf("document %s: %w", id, err)
			}
			if err := s.docRepo.Update(txCtx, doc); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	return updated, err
}

// ExportDocument renders the latest version. An empty format means html.
func (s *documentService) ExportDocument(ctx context.Context, orgID, docSlug, format string) (*docsysSvc.ExportResult, error) {
	doc, err := s.docRepo.GetLatestBySlug(ctx, orgID, docSlug)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = "html"
	}
	return s.exporters.Export(ctx, doc, format)
}
