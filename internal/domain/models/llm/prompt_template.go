package llm

import "time"

// TemplateType names a prompt template slot.
type TemplateType string

const (
	TemplateSystemMessage     TemplateType = "system_message"
	TemplateNewContent        TemplateType = "new_content"
	TemplateSummary           TemplateType = "summary"
	TemplateAnalysis          TemplateType = "analysis"
	TemplateComparison        TemplateType = "comparison"
	TemplateCustom            TemplateType = "custom"
	TemplateFormatting        TemplateType = "formatting"
	TemplateStyleAnalysis     TemplateType = "style_analysis"
	TemplateStyleCondensation TemplateType = "style_condensation"
	TemplateMicroContent      TemplateType = "micro_content"
	TemplateVeryShortContent  TemplateType = "very_short_content"
	TemplateTitle             TemplateType = "title_generation"
	TemplateDocumentFormat    TemplateType = "document_format"
)

// TemplateTypes lists every template type in display order.
var TemplateTypes = []TemplateType{
	TemplateSystemMessage,
	TemplateNewContent,
	TemplateSummary,
	TemplateAnalysis,
	TemplateComparison,
	TemplateCustom,
	TemplateFormatting,
	TemplateStyleAnalysis,
	TemplateStyleCondensation,
	TemplateMicroContent,
	TemplateVeryShortContent,
	TemplateTitle,
	TemplateDocumentFormat,
}

// Valid reports whether t is a known template type.
func (t TemplateType) Valid() bool {
	for _, known := range TemplateTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PromptTemplate is a stored override for a template type.
// OrganizationID nil means the row is the global default.
// (template_type, organization) is unique.
type PromptTemplate struct {
	ID             string       `json:"id"`
	TemplateType   TemplateType `json:"template_type"`
	OrganizationID *string      `json:"organization_id"`
	Content        string       `json:"content"`
	IsActive       bool         `json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
