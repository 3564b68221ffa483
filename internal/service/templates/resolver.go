package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"textvault/internal/domain"
	llmModels "textvault/internal/domain/models/llm"
	llmRepo "textvault/internal/domain/repositories/llm"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/prompts"
)

// Resolver implements domainllm.TemplateResolver.
type Resolver struct {
	repo    llmRepo.PromptTemplateRepository
	catalog *prompts.Catalog
	logger  *slog.Logger
}

// NewResolver creates a template resolver backed by repo and the built-in catalog.
func NewResolver(repo llmRepo.PromptTemplateRepository, catalog *prompts.Catalog, logger *slog.Logger) domainllm.TemplateResolver {
	return &Resolver{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// Resolve returns the organization override, the global row or the built-in text.
func (r *Resolver) Resolve(ctx context.Context, templateType llmModels.TemplateType, orgID string) (string, error) {
	return r.ResolveVariant(ctx, templateType, orgID, string(templateType))
}

// ResolveVariant is Resolve with fallbackKey selecting the built-in text.
func (r *Resolver) ResolveVariant(ctx context.Context, templateType llmModels.TemplateType, orgID, fallbackKey string) (string, error) {
	if !templateType.Valid() {
		return "", domain.NewValidationError("unknown template type: %s", templateType)
	}

	if orgID != "" {
		if content, ok := r.stored(ctx, templateType, &orgID); ok {
			r.logger.Debug("template resolved", "type", templateType, "scope", "organization", "org_id", orgID)
			return content, nil
		}
	}
	if content, ok := r.stored(ctx, templateType, nil); ok {
		r.logger.Debug("template resolved", "type", templateType, "scope", "global")
		return content, nil
	}

	if content, ok := r.catalog.Template(fallbackKey); ok {
		return content, nil
	}
	if content, ok := r.catalog.Template(string(templateType)); ok {
		return content, nil
	}
	return "", fmt.Errorf("no built-in template for %s", templateType)
}

// Render resolves templateType and substitutes vars.
func (r *Resolver) Render(ctx context.Context, templateType llmModels.TemplateType, orgID string, vars map[string]string) (string, error) {
	text, err := r.Resolve(ctx, templateType, orgID)
	if err != nil {
		return "", err
	}
	return SafeFormat(text, vars), nil
}

// stored looks up an active, non-empty row. Lookup failures fall through to
// the next scope.
func (r *Resolver) stored(ctx context.Context, templateType llmModels.TemplateType, orgID *string) (string, bool) {
	tpl, err := r.repo.GetActive(ctx, templateType, orgID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("template lookup failed, falling back",
				"type", templateType,
				"global", orgID == nil,
				"error", err,
			)
		}
		return "", false
	}
	if tpl.Content == "" {
		return "", false
	}
	return tpl.Content, true
}
