package generation

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"textvault/internal/domain"
	llmModels "textvault/internal/domain/models/llm"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/service/docsystem/content"
	"textvault/internal/service/docsystem/converter/sanitizer"
	"textvault/internal/service/style"
)

// FormatFallback is returned when the model's answer is not a node tree.
const FormatFallback = `[{"type":"paragraph","children":[{"text":"The AI formatting failed. Please try again or format manually."}]}]`

// Formatter asks the model to restructure content as a legacy node tree.
type Formatter struct {
	model     domainllm.ModelClient
	templates domainllm.TemplateResolver
	settings  style.ModelSettingsSource
	sanitizer *sanitizer.HTMLSanitizer
	logger    *slog.Logger
}

// NewFormatter creates the format-with-AI service.
func NewFormatter(
	model domainllm.ModelClient,
	templates domainllm.TemplateResolver,
	settings style.ModelSettingsSource,
	s *sanitizer.HTMLSanitizer,
	logger *slog.Logger,
) *Formatter {
	return &Formatter{
		model:     model,
		templates: templates,
		settings:  settings,
		sanitizer: s,
		logger:    logger,
	}
}

var _ domainllm.FormatService = (*Formatter)(nil)

// FormatDocument returns the model's node tree, or FormatFallback when the
// answer cannot be parsed. Model failures are returned as errors.
func (f *Formatter) FormatDocument(ctx context.Context, req *domainllm.FormatDocumentRequest) (*domainllm.FormatDocumentResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, domain.NewValidationError("No content provided")
	}

	settings, err := f.settings.ActiveModelSettings(ctx)
	if err != nil {
		return nil, err
	}
	system, err := f.templates.Render(ctx, llmModels.TemplateDocumentFormat, req.OrganizationID, nil)
	if err != nil {
		return nil, err
	}

	temperature := settings.Temperature
	resp, err := f.model.Complete(ctx, domainllm.PurposeFormat, &domainllm.GenerateRequest{
		Model: settings.Model,
		Messages: []domainllm.Message{
			{Role: domainllm.RoleSystem, Content: system},
			{Role: domainllm.RoleUser, Content: req.Content},
		},
		MaxTokens:   settings.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, err
	}

	result := &domainllm.FormatDocumentResult{}
	formatted, ok := ExtractNodeTree(resp.Text)
	if !ok {
		f.logger.Warn("model returned an unusable node tree, using fallback",
			"org_id", req.OrganizationID,
			"response_length", len(resp.Text),
		)
		formatted = FormatFallback
		result.Fallback = true
	}
	result.FormattedContent = formatted

	if nodes, ok := content.ParseLegacy(formatted); ok {
		result.HTML = f.sanitizer.Sanitize(content.LegacyToHTML(nodes))
	}
	return result, nil
}

// ExtractNodeTree finds a JSON node tree in a model answer: the whole text,
// else a ```json fence, else the first ``` fence. A single object is
// wrapped in an array. The tree is returned re-serialized.
func ExtractNodeTree(text string) (string, bool) {
	if tree, ok := normalizeTree(text); ok {
		return tree, true
	}

	var candidate string
	switch {
	case strings.Contains(text, "```json"):
		candidate = fenceBody(text, "```json")
	case strings.Contains(text, "```"):
		candidate = fenceBody(text, "```")
	default:
		return "", false
	}
	return normalizeTree(candidate)
}

func fenceBody(text, open string) string {
	_, after, _ := strings.Cut(text, open)
	body, _, _ := strings.Cut(after, "```")
	return strings.TrimSpace(body)
}

func normalizeTree(text string) (string, bool) {
	var parsed any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return "", false
	}
	switch parsed.(type) {
	case []any:
	case map[string]any:
		parsed = []any{parsed}
	default:
		return "", false
	}
	out, err := json.Marshal(parsed)
	if err != nil {
		return "", false
	}
	return string(out), true
}
