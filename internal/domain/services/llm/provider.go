package llm

import (
	"context"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMProvider defines the interface that all LLM providers must implement.
// Providers translate a chat-style completion into their own API and map
// their failures to *domain.ProviderError.
type LLMProvider interface {
	GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider name (e.g., "anthropic", "openai")
	Name() string

	SupportsModel(model string) bool
}

// ProviderResolver routes a model identifier to the provider serving it.
type ProviderResolver interface {
	ProviderForModel(model string) (LLMProvider, string, error)
}

// GenerateRequest contains the parameters for one completion call.
type GenerateRequest struct {
	Model       string
	Messages    []Message // ordered, role-tagged; system messages first
	MaxTokens   int
	Temperature *float64
}

// Message is a single role-tagged chat message.
type Message struct {
	Role    string
	Content string
}

// GenerateResponse contains the generated text and usage counts.
type GenerateResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// SystemPrompt returns the concatenated system messages of req.
func (req *GenerateRequest) SystemPrompt() string {
	var out string
	for _, m := range req.Messages {
		if m.Role != RoleSystem {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// TokenCounter counts tokens for a model. Implementations never fail: unknown
// models fall back to an approximation.
type TokenCounter interface {
	CountTokens(model, text string) int
}

// Model call purposes, used for logging and metrics.
const (
	PurposeGeneration        = "generation"
	PurposeStyleAnalysis     = "style_analysis"
	PurposeStyleCondensation = "style_condensation"
	PurposeTitle             = "title"
	PurposeFormat            = "format"
)

// ModelClient is what the pipeline calls: it routes the request to a provider,
// bounds it with the configured timeout and records the outcome.
type ModelClient interface {
	Complete(ctx context.Context, purpose string, req *GenerateRequest) (*GenerateResponse, error)
}
