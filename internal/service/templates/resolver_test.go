package templates

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/domain"
	llmModels "textvault/internal/domain/models/llm"
	"textvault/internal/prompts"
	"textvault/internal/repository/memory"
)

func newResolver(t *testing.T) (*Resolver, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewResolver(memory.NewPromptTemplateRepository(store), prompts.MustLoad(), logger)
	return r.(*Resolver), store
}

func createTemplate(t *testing.T, store *memory.Store, tt llmModels.TemplateType, orgID *string, content string, active bool) {
	t.Helper()
	repo := memory.NewPromptTemplateRepository(store)
	require.NoError(t, repo.Create(context.Background(), &llmModels.PromptTemplate{
		TemplateType:   tt,
		OrganizationID: orgID,
		Content:        content,
		IsActive:       active,
	}))
}

func TestResolveOrder(t *testing.T) {
	ctx := context.Background()
	org := "org-1"
	other := "org-2"

	r, store := newResolver(t)
	builtin, _ := prompts.MustLoad().Template(string(llmModels.TemplateSummary))

	got, err := r.Resolve(ctx, llmModels.TemplateSummary, org)
	require.NoError(t, err)
	assert.Equal(t, builtin, got, "built-in when nothing is stored")

	createTemplate(t, store, llmModels.TemplateSummary, nil, "global summary", true)
	got, err = r.Resolve(ctx, llmModels.TemplateSummary, org)
	require.NoError(t, err)
	assert.Equal(t, "global summary", got)

	createTemplate(t, store, llmModels.TemplateSummary, &org, "org summary", true)
	got, err = r.Resolve(ctx, llmModels.TemplateSummary, org)
	require.NoError(t, err)
	assert.Equal(t, "org summary", got)

	got, err = r.Resolve(ctx, llmModels.TemplateSummary, other)
	require.NoError(t, err)
	assert.Equal(t, "global summary", got, "other organizations see the global row")
}

func TestResolveSkipsInactiveAndEmptyRows(t *testing.T) {
	ctx := context.Background()
	org := "org-1"

	r, store := newResolver(t)
	createTemplate(t, store, llmModels.TemplateAnalysis, &org, "inactive", false)
	createTemplate(t, store, llmModels.TemplateAnalysis, nil, "", true)

	got, err := r.Resolve(ctx, llmModels.TemplateAnalysis, org)
	require.NoError(t, err)
	builtin, _ := prompts.MustLoad().Template(string(llmModels.TemplateAnalysis))
	assert.Equal(t, builtin, got)
}

func TestResolveNeverEmptyForKnownTypes(t *testing.T) {
	r, _ := newResolver(t)
	for _, tt := range llmModels.TemplateTypes {
		got, err := r.Resolve(context.Background(), tt, "")
		require.NoError(t, err, tt)
		assert.NotEmpty(t, got, tt)
	}
}

func TestResolveVariant(t *testing.T) {
	ctx := context.Background()
	r, store := newResolver(t)

	got, err := r.ResolveVariant(ctx, llmModels.TemplateNewContent, "org", prompts.VariantNewContentStyled)
	require.NoError(t, err)
	assert.Contains(t, got, "DETAILED STYLE GUIDE")

	// A stored override wins over either built-in variant.
	createTemplate(t, store, llmModels.TemplateNewContent, nil, "custom {concept}", true)
	got, err = r.ResolveVariant(ctx, llmModels.TemplateNewContent, "org", prompts.VariantNewContentStyled)
	require.NoError(t, err)
	assert.Equal(t, "custom {concept}", got)
}

func TestResolveUnknownType(t *testing.T) {
	r, _ := newResolver(t)
	_, err := r.Resolve(context.Background(), llmModels.TemplateType("limerick"), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRenderFillsMissingVariables(t *testing.T) {
	ctx := context.Background()
	r, store := newResolver(t)
	createTemplate(t, store, llmModels.TemplateCustom, nil, "{concept} / {not_provided} / {{x}}", true)

	got, err := r.Render(ctx, llmModels.TemplateCustom, "", map[string]string{"concept": "tides"})
	require.NoError(t, err)
	assert.Equal(t, "tides /  / {x}", got)
}
