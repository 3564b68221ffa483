// Package style derives writing-style guides from reference documents and
// stores them as reusable style constraints.
package style

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"textvault/internal/domain"
	llmModels "textvault/internal/domain/models/llm"
	llmRepo "textvault/internal/domain/repositories/llm"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/prompts"
)

const (
	analysisMaxTokens     = 1000
	condensationMaxTokens = 200
)

// ModelSettingsSource supplies the model and analysis temperature.
type ModelSettingsSource interface {
	ActiveModelSettings(ctx context.Context) (*domainllm.EffectiveModelSettings, error)
}

// Analyzer implements domainllm.StyleAnalyzer.
type Analyzer struct {
	model     domainllm.ModelClient
	templates domainllm.TemplateResolver
	settings  ModelSettingsSource
	catalog   *prompts.Catalog
	styles    llmRepo.StyleConstraintRepository
	now       func() time.Time
	logger    *slog.Logger
}

// NewAnalyzer creates a style analyzer.
func NewAnalyzer(
	model domainllm.ModelClient,
	templates domainllm.TemplateResolver,
	settings ModelSettingsSource,
	catalog *prompts.Catalog,
	styles llmRepo.StyleConstraintRepository,
	logger *slog.Logger,
) *Analyzer {
	return &Analyzer{
		model:     model,
		templates: templates,
		settings:  settings,
		catalog:   catalog,
		styles:    styles,
		now:       time.Now,
		logger:    logger,
	}
}

var _ domainllm.StyleAnalyzer = (*Analyzer)(nil)

// Analyze asks the model for a full style guide of combinedText, then for a
// condensed version of that guide. A failed condensation leaves
// CondensedStyle empty; a failed analysis is returned.
func (a *Analyzer) Analyze(ctx context.Context, combinedText, orgID string) (*domainllm.StyleAnalysis, error) {
	settings, err := a.settings.ActiveModelSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve model settings: %w", err)
	}

	prompt, err := a.templates.Render(ctx, llmModels.TemplateStyleAnalysis, orgID, map[string]string{
		"combined_content": combinedText,
	})
	if err != nil {
		return nil, err
	}

	resp, err := a.model.Complete(ctx, domainllm.PurposeStyleAnalysis,
		a.request(settings, prompts.SystemStyleAnalysis, prompt, analysisMaxTokens))
	if err != nil {
		return nil, fmt.Errorf("style analysis: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, &domain.ProviderError{Provider: settings.Model, Err: errors.New("empty style guide")}
	}

	a.logger.Debug("style guide generated", "org_id", orgID, "length", len(resp.Text))

	condensed, err := a.condense(ctx, settings, resp.Text, orgID)
	if err != nil {
		a.logger.Warn("style condensation failed, continuing without condensed style",
			"org_id", orgID,
			"error", err,
		)
	}

	return &domainllm.StyleAnalysis{
		StyleGuide:     resp.Text,
		CondensedStyle: condensed,
	}, nil
}

func (a *Analyzer) condense(ctx context.Context, settings *domainllm.EffectiveModelSettings, guide, orgID string) (string, error) {
	prompt, err := a.templates.Render(ctx, llmModels.TemplateStyleCondensation, orgID, map[string]string{
		"style_guide": guide,
	})
	if err != nil {
		return "", err
	}
	resp, err := a.model.Complete(ctx, domainllm.PurposeStyleCondensation,
		a.request(settings, prompts.SystemStyleCondensation, prompt, condensationMaxTokens))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (a *Analyzer) request(settings *domainllm.EffectiveModelSettings, systemKey, prompt string, maxTokens int) *domainllm.GenerateRequest {
	temperature := settings.AnalysisTemperature
	return &domainllm.GenerateRequest{
		Model: settings.Model,
		Messages: []domainllm.Message{
			{Role: domainllm.RoleSystem, Content: a.catalog.SystemPrompt(systemKey)},
			{Role: domainllm.RoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
}

// FindOrCreate returns the newest active constraint derived from exactly
// req.DocumentIDs, or analyzes req.CombinedText and stores a new one.
func (a *Analyzer) FindOrCreate(ctx context.Context, req *domainllm.FindOrCreateStyleRequest) (*llmModels.StyleConstraint, bool, error) {
	if len(req.DocumentIDs) > 0 {
		existing, err := a.styles.FindByExactReferenceSet(ctx, req.OrganizationID, req.DocumentIDs)
		if err == nil {
			a.logger.Info("reusing style constraint",
				"style_constraint_id", existing.ID,
				"org_id", req.OrganizationID,
				"documents", len(req.DocumentIDs),
			)
			return existing, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, fmt.Errorf("find style constraint: %w", err)
		}
	}

	analysis, err := a.Analyze(ctx, req.CombinedText, req.OrganizationID)
	if err != nil {
		return nil, false, err
	}

	sc := a.newConstraint(req, analysis)
	if err := a.styles.Create(ctx, sc); err != nil {
		return nil, false, fmt.Errorf("create style constraint: %w", err)
	}

	a.logger.Info("style constraint created",
		"style_constraint_id", sc.ID,
		"org_id", req.OrganizationID,
		"documents", len(sc.ReferenceDocumentIDs),
	)
	return sc, false, nil
}

func (a *Analyzer) newConstraint(req *domainllm.FindOrCreateStyleRequest, analysis *domainllm.StyleAnalysis) *llmModels.StyleConstraint {
	timestamp := a.now().UTC().Format("2006-01-02 15:04")

	var orgID *string
	if req.OrganizationID != "" {
		id := req.OrganizationID
		orgID = &id
	}

	return &llmModels.StyleConstraint{
		Name:        fmt.Sprintf("Style Constraint - %s - %s", req.Username, timestamp),
		Description: fmt.Sprintf("Style constraint created by %s on %s", req.Username, timestamp),
		Constraints: llmModels.StylePayload{
			FullStyleGuide:       analysis.StyleGuide,
			CondensedStyle:       analysis.CondensedStyle,
			StyleCharacteristics: ExtractCharacteristics(analysis.CondensedStyle),
		},
		OrganizationID:       orgID,
		CreatedBy:            req.UserID,
		IsActive:             true,
		ReferenceDocumentIDs: append([]string(nil), req.DocumentIDs...),
	}
}
