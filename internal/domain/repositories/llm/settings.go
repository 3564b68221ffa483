package llm

import (
	"context"

	models "textvault/internal/domain/models/llm"
)

// PromptTemplateRepository stores template overrides.
type PromptTemplateRepository interface {
	// GetActive returns the active row for (templateType, orgID); orgID nil selects the global row.
	GetActive(ctx context.Context, templateType models.TemplateType, orgID *string) (*models.PromptTemplate, error)
	GetByID(ctx context.Context, id string) (*models.PromptTemplate, error)
	// List returns global rows and, when orgID is set, the organization's rows.
	List(ctx context.Context, orgID *string) ([]models.PromptTemplate, error)
	Create(ctx context.Context, tpl *models.PromptTemplate) error
	Update(ctx context.Context, tpl *models.PromptTemplate) error
}

// ModelSettingsRepository stores model configurations.
type ModelSettingsRepository interface {
	GetDefault(ctx context.Context) (*models.ModelSettings, error)
	GetFirstActive(ctx context.Context) (*models.ModelSettings, error)
	GetByID(ctx context.Context, id string) (*models.ModelSettings, error)
	List(ctx context.Context) ([]models.ModelSettings, error)
	Create(ctx context.Context, s *models.ModelSettings) error
	Update(ctx context.Context, s *models.ModelSettings) error
	// ClearDefaults unsets is_default on every row except exceptID.
	ClearDefaults(ctx context.Context, exceptID string) error
	HasDefault(ctx context.Context) (bool, error)
}

// LengthSettingsRepository stores length bucket overrides.
type LengthSettingsRepository interface {
	GetActive(ctx context.Context, lengthName string, orgID *string) (*models.LengthSettings, error)
	GetByID(ctx context.Context, id string) (*models.LengthSettings, error)
	List(ctx context.Context, orgID *string) ([]models.LengthSettings, error)
	Create(ctx context.Context, s *models.LengthSettings) error
	Update(ctx context.Context, s *models.LengthSettings) error
}
