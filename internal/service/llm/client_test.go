package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/domain"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/service/llm/llmtest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type slowProvider struct{}

func (slowProvider) GenerateResponse(ctx context.Context, _ *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (slowProvider) Name() string              { return "slow" }
func (slowProvider) SupportsModel(string) bool { return true }

type slowResolver struct{}

func (slowResolver) ProviderForModel(model string) (domainllm.LLMProvider, string, error) {
	return slowProvider{}, model, nil
}

func TestClientCompleteSuccess(t *testing.T) {
	model := llmtest.New().Enqueue("provider", llmtest.Reply{Text: "<p>ok</p>"})
	client := NewClient(model, time.Second, discardLogger())

	resp, err := client.Complete(context.Background(), domainllm.PurposeGeneration, &domainllm.GenerateRequest{
		Model:     "gpt-4o-mini",
		Messages:  []domainllm.Message{{Role: domainllm.RoleUser, Content: "hi"}},
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", resp.Text)
	require.Len(t, model.Calls(), 1)
	assert.Equal(t, "gpt-4o-mini", model.Calls()[0].Request.Model)
}

func TestClientWrapsPlainErrorsAsProviderErrors(t *testing.T) {
	model := llmtest.New().Enqueue("provider", llmtest.Reply{Err: errors.New("connection reset")})
	client := NewClient(model, time.Second, discardLogger())

	_, err := client.Complete(context.Background(), domainllm.PurposeTitle, &domainllm.GenerateRequest{Model: "gpt-4o"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)

	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.Billing)
}

func TestClientKeepsBillingClassification(t *testing.T) {
	billing := &domain.ProviderError{Provider: "OpenAI", Billing: true, Err: errors.New("insufficient_quota")}
	model := llmtest.New().Enqueue("provider", llmtest.Reply{Err: billing})
	client := NewClient(model, time.Second, discardLogger())

	_, err := client.Complete(context.Background(), domainllm.PurposeGeneration, &domainllm.GenerateRequest{Model: "gpt-4o"})
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Billing)
	assert.Equal(t, "OpenAI", perr.Provider)
}

func TestClientTimeout(t *testing.T) {
	client := NewClient(slowResolver{}, 20*time.Millisecond, discardLogger())

	_, err := client.Complete(context.Background(), domainllm.PurposeGeneration, &domainllm.GenerateRequest{Model: "gpt-4o"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegistryUnknownModel(t *testing.T) {
	registry := NewProviderRegistry(NewProviderFactory(nil))

	_, _, err := registry.ProviderForModel("mystery-model")
	assert.Error(t, err)
}

func TestRegistryCachesProviders(t *testing.T) {
	registry := NewProviderRegistry(NewProviderFactory(nil))

	first, model, err := registry.ProviderForModel("lorem/lorem-fast")
	require.NoError(t, err)
	assert.Equal(t, "lorem-fast", model)
	assert.Equal(t, ProviderLorem, first.Name())

	second, _, err := registry.ProviderForModel("lorem-slow")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
