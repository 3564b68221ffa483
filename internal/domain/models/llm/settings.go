package llm

import "time"

// ModelSettings selects the model and sampling parameters used for generation.
// At most one row holds IsDefault.
type ModelSettings struct {
	ID                  string    `json:"id"`
	ModelName           string    `json:"model_name"`
	MaxTokens           int       `json:"max_tokens"`
	Temperature         float64   `json:"temperature"`          // generation
	AnalysisTemperature float64   `json:"analysis_temperature"` // style analysis
	IsActive            bool      `json:"is_active"`
	IsDefault           bool      `json:"is_default"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// LengthSettings maps a named length bucket to a description and a token budget.
// Unique per (length_name, organization).
type LengthSettings struct {
	ID             string    `json:"id"`
	LengthName     string    `json:"length_name"`
	Description    string    `json:"description"`
	TargetTokens   int       `json:"target_tokens"`
	OrganizationID *string   `json:"organization_id"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Length bucket names.
const (
	LengthMicro     = "micro"
	LengthVeryShort = "very_short"
	LengthShort     = "short"
	LengthMedium    = "medium"
	LengthLong      = "long"
	LengthVeryLong  = "very_long"
)
