// Package settings resolves and administers model settings, length buckets
// and prompt template overrides.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"textvault/internal/capabilities"
	"textvault/internal/domain"
	llmModels "textvault/internal/domain/models/llm"
	"textvault/internal/domain/repositories"
	llmRepo "textvault/internal/domain/repositories/llm"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/prompts"
	llmService "textvault/internal/service/llm"
)

// Sources reported in EffectiveModelSettings and EffectiveLength.
const (
	SourceDefault      = "default"
	SourceActive       = "active"
	SourceConfig       = "config"
	SourceOrganization = "organization"
	SourceGlobal       = "global"
	SourceBuiltin      = "builtin"
)

// Fallback is the model configuration used when no settings row is active.
type Fallback struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Service implements domainllm.SettingsService.
type Service struct {
	modelRepo    llmRepo.ModelSettingsRepository
	lengthRepo   llmRepo.LengthSettingsRepository
	templateRepo llmRepo.PromptTemplateRepository
	txManager    repositories.TransactionManager
	catalog      *prompts.Catalog
	capabilities *capabilities.Registry
	fallback     Fallback
	logger       *slog.Logger
}

// NewService creates the settings service. caps may be nil, which skips the
// max_tokens check against the model catalog.
func NewService(
	modelRepo llmRepo.ModelSettingsRepository,
	lengthRepo llmRepo.LengthSettingsRepository,
	templateRepo llmRepo.PromptTemplateRepository,
	txManager repositories.TransactionManager,
	catalog *prompts.Catalog,
	caps *capabilities.Registry,
	fallback Fallback,
	logger *slog.Logger,
) *Service {
	return &Service{
		modelRepo:    modelRepo,
		lengthRepo:   lengthRepo,
		templateRepo: templateRepo,
		txManager:    txManager,
		catalog:      catalog,
		capabilities: caps,
		fallback:     fallback,
		logger:       logger,
	}
}

var _ domainllm.SettingsService = (*Service)(nil)

// ActiveModelSettings returns the active default row, else the oldest active
// row, else the configured fallback. Lookup errors also fall back.
func (s *Service) ActiveModelSettings(ctx context.Context) (*domainllm.EffectiveModelSettings, error) {
	row, err := s.modelRepo.GetDefault(ctx)
	source := SourceDefault
	if errors.Is(err, domain.ErrNotFound) {
		row, err = s.modelRepo.GetFirstActive(ctx)
		source = SourceActive
	}
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("model settings lookup failed, using configured defaults", "error", err)
		}
		return &domainllm.EffectiveModelSettings{
			Model:               s.fallback.Model,
			Temperature:         s.fallback.Temperature,
			AnalysisTemperature: s.fallback.Temperature,
			MaxTokens:           s.fallback.MaxTokens,
			Source:              SourceConfig,
		}, nil
	}
	return &domainllm.EffectiveModelSettings{
		Model:               row.ModelName,
		Temperature:         row.Temperature,
		AnalysisTemperature: row.AnalysisTemperature,
		MaxTokens:           row.MaxTokens,
		Source:              source,
	}, nil
}

// LengthSettings resolves a length bucket: organization row, global row,
// built-in bucket, then the built-in medium bucket for unknown names.
func (s *Service) LengthSettings(ctx context.Context, lengthName, orgID string) (*domainllm.EffectiveLength, error) {
	if lengthName == "" {
		lengthName = llmModels.LengthMedium
	}

	if orgID != "" {
		if row, ok := s.storedLength(ctx, lengthName, &orgID); ok {
			return effectiveLength(row, SourceOrganization), nil
		}
	}
	if row, ok := s.storedLength(ctx, lengthName, nil); ok {
		return effectiveLength(row, SourceGlobal), nil
	}

	builtin := s.catalog.LengthOrDefault(lengthName)
	return &domainllm.EffectiveLength{
		Name:         builtin.Name,
		Description:  builtin.Phrase,
		TargetTokens: builtin.TargetTokens,
		Source:       SourceBuiltin,
	}, nil
}

func (s *Service) storedLength(ctx context.Context, name string, orgID *string) (*llmModels.LengthSettings, bool) {
	row, err := s.lengthRepo.GetActive(ctx, name, orgID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("length settings lookup failed, falling back", "length", name, "error", err)
		}
		return nil, false
	}
	return row, true
}

func effectiveLength(row *llmModels.LengthSettings, source string) *domainllm.EffectiveLength {
	return &domainllm.EffectiveLength{
		Name:         row.LengthName,
		Description:  row.Description,
		TargetTokens: row.TargetTokens,
		Source:       source,
	}
}

// --- model settings ---

func (s *Service) ListModelSettings(ctx context.Context) ([]llmModels.ModelSettings, error) {
	return s.modelRepo.List(ctx)
}

// CreateModelSettings stores a new row. A default row clears the previous
// default; the first active row becomes the default when none exists.
func (s *Service) CreateModelSettings(ctx context.Context, req *domainllm.ModelSettingsRequest) (*llmModels.ModelSettings, error) {
	row := &llmModels.ModelSettings{
		Temperature:         0.7,
		AnalysisTemperature: 0.7,
		IsActive:            true,
	}
	applyModelRequest(row, req)

	if err := s.validateModelSettings(row); err != nil {
		return nil, err
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if row.IsDefault {
			if err := s.modelRepo.ClearDefaults(txCtx, ""); err != nil {
				return err
			}
		} else if row.IsActive {
			hasDefault, err := s.modelRepo.HasDefault(txCtx)
			if err != nil {
				return err
			}
			row.IsDefault = !hasDefault
		}
		return s.modelRepo.Create(txCtx, row)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("model settings created", "id", row.ID, "model", row.ModelName, "default", row.IsDefault)
	return row, nil
}

func (s *Service) UpdateModelSettings(ctx context.Context, id string, req *domainllm.ModelSettingsRequest) (*llmModels.ModelSettings, error) {
	var row *llmModels.ModelSettings
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		row, err = s.modelRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		applyModelRequest(row, req)
		if err := s.validateModelSettings(row); err != nil {
			return err
		}
		if row.IsDefault {
			if err := s.modelRepo.ClearDefaults(txCtx, row.ID); err != nil {
				return err
			}
		}
		return s.modelRepo.Update(txCtx, row)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("model settings updated", "id", row.ID, "model", row.ModelName, "default", row.IsDefault)
	return row, nil
}

func applyModelRequest(row *llmModels.ModelSettings, req *domainllm.ModelSettingsRequest) {
	if req.ModelName != nil {
		row.ModelName = strings.TrimSpace(*req.ModelName)
	}
	if req.MaxTokens != nil {
		row.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		row.Temperature = *req.Temperature
	}
	if req.AnalysisTemperature != nil {
		row.AnalysisTemperature = *req.AnalysisTemperature
	}
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
	}
	if req.IsDefault != nil {
		row.IsDefault = *req.IsDefault
	}
}

func (s *Service) validateModelSettings(row *llmModels.ModelSettings) error {
	err := validation.ValidateStruct(row,
		validation.Field(&row.ModelName, validation.Required, validation.Length(1, 50)),
		validation.Field(&row.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&row.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&row.AnalysisTemperature, validation.Min(0.0), validation.Max(2.0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	info, err := llmService.ParseModel(row.ModelName)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if s.capabilities != nil {
		if err := s.capabilities.CheckMaxTokens(info.Provider, info.Model, row.MaxTokens); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}
	return nil
}

// --- length settings ---

// ListLengthSettings returns global rows plus the organization's rows.
func (s *Service) ListLengthSettings(ctx context.Context, orgID string) ([]llmModels.LengthSettings, error) {
	return s.lengthRepo.List(ctx, scope(orgID))
}

func (s *Service) CreateLengthSettings(ctx context.Context, req *domainllm.LengthSettingsRequest) (*llmModels.LengthSettings, error) {
	row := &llmModels.LengthSettings{
		OrganizationID: req.OrganizationID,
		IsActive:       true,
	}
	if req.LengthName != nil {
		row.LengthName = strings.TrimSpace(*req.LengthName)
	}
	applyLengthRequest(row, req)

	if err := validateLengthSettings(row); err != nil {
		return nil, err
	}
	if err := s.lengthRepo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("length settings created", "id", row.ID, "length", row.LengthName, "global", row.OrganizationID == nil)
	return row, nil
}

// UpdateLengthSettings patches a row. The length name is fixed after creation.
func (s *Service) UpdateLengthSettings(ctx context.Context, id string, req *domainllm.LengthSettingsRequest) (*llmModels.LengthSettings, error) {
	row, err := s.lengthRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sameScope(row.OrganizationID, req.OrganizationID) {
		return nil, fmt.Errorf("length settings %s: %w", id, domain.ErrNotFound)
	}
	if req.LengthName != nil && strings.TrimSpace(*req.LengthName) != row.LengthName {
		return nil, domain.NewValidationError("length_name cannot be changed")
	}
	applyLengthRequest(row, req)

	if err := validateLengthSettings(row); err != nil {
		return nil, err
	}
	if err := s.lengthRepo.Update(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("length settings updated", "id", row.ID, "length", row.LengthName)
	return row, nil
}

func applyLengthRequest(row *llmModels.LengthSettings, req *domainllm.LengthSettingsRequest) {
	if req.Description != nil {
		row.Description = strings.TrimSpace(*req.Description)
	}
	if req.TargetTokens != nil {
		row.TargetTokens = *req.TargetTokens
	}
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
	}
}

func validateLengthSettings(row *llmModels.LengthSettings) error {
	err := validation.ValidateStruct(row,
		validation.Field(&row.LengthName, validation.Required, validation.Length(1, 20)),
		validation.Field(&row.Description, validation.Required, validation.Length(1, 100)),
		validation.Field(&row.TargetTokens, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// --- prompt templates ---

func (s *Service) ListTemplates(ctx context.Context, orgID string) ([]llmModels.PromptTemplate, error) {
	return s.templateRepo.List(ctx, scope(orgID))
}

// CreateTemplate stores an override. A type may have one row per scope.
func (s *Service) CreateTemplate(ctx context.Context, req *domainllm.TemplateRequest) (*llmModels.PromptTemplate, error) {
	row := &llmModels.PromptTemplate{
		OrganizationID: req.OrganizationID,
		IsActive:       true,
	}
	if req.Global {
		row.OrganizationID = nil
	}
	if req.TemplateType != nil {
		row.TemplateType = llmModels.TemplateType(strings.TrimSpace(*req.TemplateType))
	}
	if req.Content != nil {
		row.Content = *req.Content
	}
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
	}

	if err := validateTemplate(row); err != nil {
		return nil, err
	}
	if err := s.templateRepo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("prompt template created",
		"id", row.ID,
		"type", row.TemplateType,
		"global", row.OrganizationID == nil,
	)
	return row, nil
}

// UpdateTemplate patches content or the active flag. Type and scope are fixed.
func (s *Service) UpdateTemplate(ctx context.Context, id string, req *domainllm.TemplateRequest) (*llmModels.PromptTemplate, error) {
	row, err := s.editableTemplate(ctx, id, req.OrganizationID, req.Global)
	if err != nil {
		return nil, err
	}
	if req.TemplateType != nil && llmModels.TemplateType(strings.TrimSpace(*req.TemplateType)) != row.TemplateType {
		return nil, domain.NewValidationError("template_type cannot be changed")
	}
	if req.Content != nil {
		row.Content = *req.Content
	}
	if req.IsActive != nil {
		row.IsActive = *req.IsActive
	}

	if err := validateTemplate(row); err != nil {
		return nil, err
	}
	if err := s.templateRepo.Update(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("prompt template updated", "id", row.ID, "type", row.TemplateType, "active", row.IsActive)
	return row, nil
}

// DeactivateTemplate turns an organization's override off so resolution
// falls through to the global row or the built-in text. An empty orgID
// addresses global rows.
func (s *Service) DeactivateTemplate(ctx context.Context, id, orgID string) error {
	row, err := s.editableTemplate(ctx, id, scope(orgID), orgID == "")
	if err != nil {
		return err
	}
	row.IsActive = false
	if err := s.templateRepo.Update(ctx, row); err != nil {
		return err
	}
	s.logger.Info("prompt template deactivated", "id", row.ID, "type", row.TemplateType)
	return nil
}

// editableTemplate loads a row the caller's scope may change.
func (s *Service) editableTemplate(ctx context.Context, id string, orgID *string, global bool) (*llmModels.PromptTemplate, error) {
	row, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if global {
		orgID = nil
	}
	if !sameScope(row.OrganizationID, orgID) {
		return nil, fmt.Errorf("template %s: %w", id, domain.ErrNotFound)
	}
	return row, nil
}

func validateTemplate(row *llmModels.PromptTemplate) error {
	err := validation.ValidateStruct(row,
		validation.Field(&row.TemplateType,
			validation.Required,
			validation.By(func(value interface{}) error {
				if t, _ := value.(llmModels.TemplateType); !t.Valid() {
					return fmt.Errorf("unknown template type %q", t)
				}
				return nil
			}),
		),
		validation.Field(&row.Content, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func scope(orgID string) *string {
	if orgID == "" {
		return nil
	}
	return &orgID
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
