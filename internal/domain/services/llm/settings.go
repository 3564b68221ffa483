package llm

import (
	"context"

	models "textvault/internal/domain/models/llm"
)

// TemplateResolver resolves prompt templates: organization override, then
// global row, then the built-in fallback. It never returns an empty template
// for a known type.
type TemplateResolver interface {
	Resolve(ctx context.Context, templateType models.TemplateType, orgID string) (string, error)

	// ResolveVariant is Resolve with an explicit built-in fallback key, for
	// types whose fallback depends on the request (new_content with a style guide).
	ResolveVariant(ctx context.Context, templateType models.TemplateType, orgID, fallbackKey string) (string, error)

	// Render resolves a template and substitutes vars; unknown placeholders become "".
	Render(ctx context.Context, templateType models.TemplateType, orgID string, vars map[string]string) (string, error)
}

// EffectiveModelSettings is the model configuration a request runs with.
type EffectiveModelSettings struct {
	Model               string  `json:"model"`
	Temperature         float64 `json:"temperature"`
	AnalysisTemperature float64 `json:"analysis_temperature"`
	MaxTokens           int     `json:"max_tokens"`
	Source              string  `json:"source"` // default, active, config
}

// EffectiveLength is a resolved length bucket.
type EffectiveLength struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	TargetTokens int    `json:"target_tokens"`
	Source       string `json:"source"` // organization, global, builtin
}

// SettingsService resolves and administers model, length and template settings.
type SettingsService interface {
	ActiveModelSettings(ctx context.Context) (*EffectiveModelSettings, error)
	LengthSettings(ctx context.Context, lengthName, orgID string) (*EffectiveLength, error)

	ListModelSettings(ctx context.Context) ([]models.ModelSettings, error)
	CreateModelSettings(ctx context.Context, req *ModelSettingsRequest) (*models.ModelSettings, error)
	UpdateModelSettings(ctx context.Context, id string, req *ModelSettingsRequest) (*models.ModelSettings, error)

	ListLengthSettings(ctx context.Context, orgID string) ([]models.LengthSettings, error)
	CreateLengthSettings(ctx context.Context, req *LengthSettingsRequest) (*models.LengthSettings, error)
	UpdateLengthSettings(ctx context.Context, id string, req *LengthSettingsRequest) (*models.LengthSettings, error)

	ListTemplates(ctx context.Context, orgID string) ([]models.PromptTemplate, error)
	CreateTemplate(ctx context.Context, req *TemplateRequest) (*models.PromptTemplate, error)
	UpdateTemplate(ctx context.Context, id string, req *TemplateRequest) (*models.PromptTemplate, error)
	DeactivateTemplate(ctx context.Context, id, orgID string) error
}

// ModelSettingsRequest creates or patches a model settings row.
type ModelSettingsRequest struct {
	ModelName           *string  `json:"model_name,omitempty"`
	MaxTokens           *int     `json:"max_tokens,omitempty"`
	Temperature         *float64 `json:"temperature,omitempty"`
	AnalysisTemperature *float64 `json:"analysis_temperature,omitempty"`
	IsActive            *bool    `json:"is_active,omitempty"`
	IsDefault           *bool    `json:"is_default,omitempty"`
}

// LengthSettingsRequest creates or patches a length bucket.
type LengthSettingsRequest struct {
	OrganizationID *string `json:"-"` // nil = global (admin of no organization)
	LengthName     *string `json:"length_name,omitempty"`
	Description    *string `json:"description,omitempty"`
	TargetTokens   *int    `json:"target_tokens,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// TemplateRequest creates or patches a prompt template.
type TemplateRequest struct {
	OrganizationID *string `json:"-"`
	TemplateType   *string `json:"template_type,omitempty"`
	Content        *string `json:"content,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
	Global         bool    `json:"global,omitempty"`
}
