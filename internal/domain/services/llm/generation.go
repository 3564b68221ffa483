package llm

import (
	"context"

	"textvault/internal/domain/models"
	"textvault/internal/domain/models/docsystem"
	llmModels "textvault/internal/domain/models/llm"
)

// Generation modes.
const (
	GenerationExisting = "existing"
	GenerationNew      = "new"
)

// Document types for "existing" mode.
const (
	DocumentTypeSummary    = "summary"
	DocumentTypeAnalysis   = "analysis"
	DocumentTypeComparison = "comparison"
)

// Pipeline stages reported on failures.
const (
	StageValidating     = "validating"
	StageSampling       = "sampling"
	StageStyleResolving = "style-resolving"
	StagePrompting      = "prompting"
	StageCallingModel   = "calling-model"
	StagePersisting     = "persisting"
)

// GenerationService runs the generation pipeline for one request.
type GenerationService interface {
	Generate(ctx context.Context, req *GenerateDocumentRequest) (*GenerateDocumentResult, error)
}

// GenerateDocumentRequest is the input of a generation request.
type GenerateDocumentRequest struct {
	OrganizationID string `json:"-"`
	UserID         string `json:"-"`
	Username       string `json:"-"`

	// Reference filters
	Tags                []string `json:"tags"`
	CategoryFilter      *string  `json:"category_filter"`
	Status              *string  `json:"status"`
	SelectedDocumentIDs []string `json:"selected_document_ids"`
	IncludeAllVersions  bool     `json:"include_all_versions"`

	GenerationType   string  `json:"generation_type"` // existing (default) | new
	DocumentType     string  `json:"document_type"`   // summary (default) | analysis | comparison
	Concept          string  `json:"concept"`
	DocumentLength   string  `json:"document_length"` // default medium
	DocumentCategory *string `json:"document_category"`
	Title            string  `json:"title"`

	StyleGuide        string  `json:"style_guide"`
	StyleConstraintID *string `json:"style_constraint_id"`
	AnalyzeStyleOnly  bool    `json:"analyze_style_only"`
	DebugMode         bool    `json:"debug_mode"`
}

// GenerateDocumentResult holds exactly one of Document, StyleOnly or Debug.
type GenerateDocumentResult struct {
	Document  *docsystem.Document
	Quota     *models.QuotaUsage
	StyleOnly *StyleOnlyResult
	Debug     *DebugResult
}

// StyleOnlyResult is returned when analyze_style_only is set.
type StyleOnlyResult struct {
	Message               string   `json:"message"`
	StyleGuide            string   `json:"style_guide"`
	CondensedStyle        string   `json:"condensed_style"`
	StyleConstraintID     string   `json:"style_constraint_id"`
	Reused                bool     `json:"reused"`
	DocumentCount         int      `json:"document_count"`
	DocumentTitles        []string `json:"document_titles"`
	CombinedContentLength int      `json:"combined_content_length"`
}

// DebugResult exposes the assembled prompt without calling the model.
type DebugResult struct {
	Debug                 bool     `json:"debug"`
	SystemMessage         string   `json:"system_message"`
	Prompt                string   `json:"prompt"`
	Model                 string   `json:"model"`
	Temperature           float64  `json:"temperature"`
	MaxTokens             int      `json:"max_tokens"`
	TemplateType          string   `json:"template_type"`
	StyleConstraintID     *string  `json:"style_constraint_id,omitempty"`
	DocumentCount         int      `json:"document_count"`
	DocumentTitles        []string `json:"document_titles"`
	CombinedContentLength int      `json:"combined_content_length"`
	SampleTokens          int      `json:"sample_tokens"`
}

// FormatService asks the model to restructure content into the legacy node format.
type FormatService interface {
	FormatDocument(ctx context.Context, req *FormatDocumentRequest) (*FormatDocumentResult, error)
}

// FormatDocumentRequest is the input of the formatting call.
type FormatDocumentRequest struct {
	OrganizationID string `json:"-"`
	Content        string `json:"content"`
}

// FormatDocumentResult carries the node tree (JSON) and whether the fallback was used.
type FormatDocumentResult struct {
	FormattedContent string `json:"formatted_content"`
	HTML             string `json:"html"`
	Fallback         bool   `json:"fallback"`
}

// StyleAnalysis is the output of the two-stage style analysis.
type StyleAnalysis struct {
	StyleGuide     string `json:"style_guide"`
	CondensedStyle string `json:"condensed_style"`
}

// StyleAnalyzer produces style guides and reusable style constraints.
type StyleAnalyzer interface {
	Analyze(ctx context.Context, combinedText, orgID string) (*StyleAnalysis, error)

	// FindOrCreate reuses an active constraint whose reference set equals docIDs,
	// otherwise analyzes combinedText and stores a new constraint.
	// The bool reports whether an existing constraint was reused.
	FindOrCreate(ctx context.Context, req *FindOrCreateStyleRequest) (*llmModels.StyleConstraint, bool, error)
}

// FindOrCreateStyleRequest carries the caller identity explicitly.
type FindOrCreateStyleRequest struct {
	DocumentIDs    []string
	OrganizationID string
	UserID         string
	Username       string
	CombinedText   string
}

// StyleConstraintService exposes stored constraints.
type StyleConstraintService interface {
	List(ctx context.Context, orgID string, includeInactive bool) ([]llmModels.StyleConstraint, error)
	Get(ctx context.Context, id, orgID string) (*llmModels.StyleConstraint, error)
	ReferenceDocuments(ctx context.Context, id, orgID string) ([]docsystem.Document, error)
	Deactivate(ctx context.Context, id, orgID string) error
}
