package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"textvault/internal/domain"
	domainllm "textvault/internal/domain/services/llm"
)

// Provider implements the LLMProvider interface for OpenAI chat models.
type Provider struct {
	client *openai.Client
}

// NewProvider creates a new OpenAI provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	return &Provider{
		client: openai.NewClientWithConfig(openai.DefaultConfig(apiKey)),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// SupportsModel reports gpt-*, chatgpt-* and o-series models.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "chatgpt-") || isReasoningModel(model)
}

// GenerateResponse runs one chat completion.
func (p *Provider) GenerateResponse(ctx context.Context, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by OpenAI provider", req.Model)
	}

	apiReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: convertMessages(req.Messages),
	}

	// Reasoning models reject max_tokens and custom temperatures.
	if isReasoningModel(req.Model) {
		apiReq.MaxCompletionTokens = req.MaxTokens
	} else {
		apiReq.MaxTokens = req.MaxTokens
		if req.Temperature != nil {
			apiReq.Temperature = float32(*req.Temperature)
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &domain.ProviderError{Provider: "OpenAI", Err: fmt.Errorf("response contained no choices")}
	}

	return &domainllm.GenerateResponse{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		StopReason:   string(resp.Choices[0].FinishReason),
	}, nil
}

func convertMessages(messages []domainllm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case domainllm.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case domainllm.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

func isReasoningModel(model string) bool {
	return len(model) >= 2 && model[0] == 'o' && model[1] >= '0' && model[1] <= '9'
}

// classifyError flags quota and billing failures from the structured API
// error only. Timeouts and rejected requests stay ordinary provider failures.
func classifyError(err error) error {
	billing := false

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && billingCodes[code] {
			billing = true
		}
		if billingCodes[apiErr.Type] || apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			billing = true
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		billing = true
	}

	return &domain.ProviderError{Provider: "OpenAI", Billing: billing, Err: err}
}

var billingCodes = map[string]bool{
	"insufficient_quota":         true,
	"billing_hard_limit_reached": true,
}
