package llm

import "time"

// StyleConstraint is a reusable writing-style directive derived from a fixed
// set of reference documents. Two requests share a constraint when their
// reference document sets are equal.
type StyleConstraint struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Description          string       `json:"description"`
	Constraints          StylePayload `json:"constraints"`
	OrganizationID       *string      `json:"organization_id"` // nil = global
	CreatedBy            string       `json:"created_by"`
	IsActive             bool         `json:"is_active"`
	ReferenceDocumentIDs []string     `json:"reference_document_ids"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// StylePayload is stored as JSONB.
type StylePayload struct {
	FullStyleGuide       string               `json:"full_style_guide"`
	CondensedStyle       string               `json:"condensed_style"`
	StyleCharacteristics StyleCharacteristics `json:"style_characteristics"`
}

// StyleCharacteristics is a best-effort keyword summary of the condensed style.
// It is informational only; CondensedStyle is authoritative.
type StyleCharacteristics struct {
	Language            string `json:"language"`
	Tone                string `json:"tone"`
	SentenceStructure   string `json:"sentence_structure"`
	ParagraphStructure  string `json:"paragraph_structure"`
	Vocabulary          string `json:"vocabulary"`
	Perspective         string `json:"perspective"`
	Tense               string `json:"tense"`
	DistinctiveElements string `json:"distinctive_elements"`
}
