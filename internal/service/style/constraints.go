package style

import (
	"context"
	"log/slog"

	"textvault/internal/domain/models/docsystem"
	llmModels "textvault/internal/domain/models/llm"
	docsysRepo "textvault/internal/domain/repositories/docsystem"
	llmRepo "textvault/internal/domain/repositories/llm"
	domainllm "textvault/internal/domain/services/llm"
)

type constraintService struct {
	styles llmRepo.StyleConstraintRepository
	docs   docsysRepo.DocumentRepository
	logger *slog.Logger
}

// NewConstraintService exposes stored style constraints to the API.
func NewConstraintService(styles llmRepo.StyleConstraintRepository, docs docsysRepo.DocumentRepository, logger *slog.Logger) domainllm.StyleConstraintService {
	return &constraintService{
		styles: styles,
		docs:   docs,
		logger: logger,
	}
}

func (s *constraintService) List(ctx context.Context, orgID string, includeInactive bool) ([]llmModels.StyleConstraint, error) {
	return s.styles.List(ctx, orgID, includeInactive)
}

func (s *constraintService) Get(ctx context.Context, id, orgID string) (*llmModels.StyleConstraint, error) {
	return s.styles.GetByID(ctx, id, orgID)
}

// ReferenceDocuments returns the organization's documents a constraint was
// derived from. Documents removed since then are skipped.
func (s *constraintService) ReferenceDocuments(ctx context.Context, id, orgID string) ([]docsystem.Document, error) {
	sc, err := s.styles.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	if len(sc.ReferenceDocumentIDs) == 0 {
		return []docsystem.Document{}, nil
	}
	docs, _, err := s.docs.List(ctx, &docsystem.DocumentFilter{
		OrganizationID: orgID,
		IDs:            sc.ReferenceDocumentIDs,
		IncludeDeleted: true,
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *constraintService) Deactivate(ctx context.Context, id, orgID string) error {
	if err := s.styles.SetActive(ctx, id, orgID, false); err != nil {
		return err
	}
	s.logger.Info("style constraint deactivated", "style_constraint_id", id, "org_id", orgID)
	return nil
}
