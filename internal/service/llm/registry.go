package llm

import (
	"fmt"
	"sync"

	domainllm "textvault/internal/domain/services/llm"
)

// providerSource creates providers by name. *ProviderFactory implements it.
type providerSource interface {
	GetProvider(name string) (domainllm.LLMProvider, error)
}

// ProviderRegistry routes model identifiers to providers.
// Uses ParseModel to extract the provider, then the factory to create instances.
type ProviderRegistry struct {
	factory providerSource
	cache   map[string]domainllm.LLMProvider // Cache provider instances
	mu      sync.RWMutex
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(factory providerSource) *ProviderRegistry {
	return &ProviderRegistry{
		factory: factory,
		cache:   make(map[string]domainllm.LLMProvider),
	}
}

// ProviderForModel returns the provider serving model and the model id to send it.
//
// Examples:
//   - "gpt-4o-mini" → openai provider, "gpt-4o-mini"
//   - "anthropic/claude-haiku-4-5" → anthropic provider, "claude-haiku-4-5"
func (r *ProviderRegistry) ProviderForModel(model string) (domainllm.LLMProvider, string, error) {
	info, err := ParseModel(model)
	if err != nil {
		return nil, "", err
	}

	provider, err := r.GetProvider(info.Provider)
	if err != nil {
		return nil, "", err
	}
	return provider, info.Model, nil
}

// GetProvider returns the cached provider for name, creating it on first use.
func (r *ProviderRegistry) GetProvider(name string) (domainllm.LLMProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	// Fast path: check cache with read lock
	r.mu.RLock()
	if cached, exists := r.cache[name]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created the provider while we waited for the lock
	if cached, exists := r.cache[name]; exists {
		return cached, nil
	}

	provider, err := r.factory.GetProvider(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", name, err)
	}

	r.cache[name] = provider
	return provider, nil
}

// Validate checks if the factory is properly configured.
// Should be called at startup to fail fast if misconfigured.
func (r *ProviderRegistry) Validate() error {
	if r.factory == nil {
		return fmt.Errorf("provider factory is not configured")
	}
	return nil
}
