package llm

import (
	"fmt"

	"textvault/internal/config"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/service/llm/providers/anthropic"
	"textvault/internal/service/llm/providers/lorem"
	"textvault/internal/service/llm/providers/openai"
)

// ProviderFactory creates provider instances from configured API keys.
type ProviderFactory struct {
	config *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{
		config: cfg,
	}
}

// GetProvider returns a provider instance for the given provider name
//
// Supported providers:
//   - "openai" - GPT and o-series models via the OpenAI API
//   - "anthropic" - Claude models via Anthropic API
//   - "lorem" - Mock provider for development (no API key required)
func (f *ProviderFactory) GetProvider(providerName string) (domainllm.LLMProvider, error) {
	switch providerName {
	case ProviderOpenAI:
		return f.createOpenAIProvider()

	case ProviderAnthropic:
		return f.createAnthropicProvider()

	case ProviderLorem:
		return lorem.NewProvider(), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// Available lists the providers that can be created with the current config.
func (f *ProviderFactory) Available() []string {
	names := make([]string, 0, 3)
	if f.config.OpenAIAPIKey != "" {
		names = append(names, ProviderOpenAI)
	}
	if f.config.AnthropicAPIKey != "" {
		names = append(names, ProviderAnthropic)
	}
	return append(names, ProviderLorem)
}

func (f *ProviderFactory) createOpenAIProvider() (domainllm.LLMProvider, error) {
	if f.config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	provider, err := openai.NewProvider(f.config.OpenAIAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI provider: %w", err)
	}
	return provider, nil
}

func (f *ProviderFactory) createAnthropicProvider() (domainllm.LLMProvider, error) {
	if f.config.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	provider, err := anthropic.NewProvider(f.config.AnthropicAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}
	return provider, nil
}
