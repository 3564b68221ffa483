package style

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/domain"
	"textvault/internal/domain/models/docsystem"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/prompts"
	"textvault/internal/repository/memory"
	"textvault/internal/service/llm/llmtest"
	"textvault/internal/service/templates"
)

type fixedSettings struct{}

func (fixedSettings) ActiveModelSettings(context.Context) (*domainllm.EffectiveModelSettings, error) {
	return &domainllm.EffectiveModelSettings{
		Model:               "gpt-4o-mini",
		Temperature:         0.7,
		AnalysisTemperature: 0.3,
		MaxTokens:           4096,
		Source:              "config",
	}, nil
}

type fixture struct {
	analyzer *Analyzer
	model    *llmtest.ScriptedModel
	store    *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	catalog := prompts.MustLoad()
	model := llmtest.New()

	a := NewAnalyzer(
		model,
		templates.NewResolver(memory.NewPromptTemplateRepository(store), catalog, logger),
		fixedSettings{},
		catalog,
		memory.NewStyleConstraintRepository(store),
		logger,
	)
	a.now = func() time.Time { return time.Date(2024, time.May, 2, 14, 30, 0, 0, time.UTC) }
	return &fixture{analyzer: a, model: model, store: store}
}

func (f *fixture) documents(t *testing.T, orgID string, n int) []string {
	t.Helper()
	repo := memory.NewDocumentRepository(f.store)
	ids := make([]string, n)
	for i := range ids {
		doc := &docsystem.Document{
			OrganizationID: orgID,
			Title:          fmt.Sprintf("Doc %d", i),
			Slug:           fmt.Sprintf("doc-%d", i),
			Status:         docsystem.StatusDraft,
			Version:        1,
			IsLatest:       true,
		}
		require.NoError(t, repo.Create(context.Background(), doc))
		ids[i] = doc.ID
	}
	return ids
}

func TestAnalyzeTwoCalls(t *testing.T) {
	f := newFixture(t)
	f.model.
		Enqueue(domainllm.PurposeStyleAnalysis, llmtest.Reply{Text: "## LANGUAGE AND TONE\nFormal Norwegian."}).
		Enqueue(domainllm.PurposeStyleCondensation, llmtest.Reply{Text: "  Write in Norwegian using short sentences.  "})

	got, err := f.analyzer.Analyze(context.Background(), "Title: A\n\nContent: tekst", "org-1")
	require.NoError(t, err)
	assert.Equal(t, "## LANGUAGE AND TONE\nFormal Norwegian.", got.StyleGuide)
	assert.Equal(t, "Write in Norwegian using short sentences.", got.CondensedStyle)

	analysis := f.model.CallsFor(domainllm.PurposeStyleAnalysis)
	require.Len(t, analysis, 1)
	req := analysis[0].Request
	assert.Equal(t, 1000, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.3, *req.Temperature)
	assert.Contains(t, req.Messages[1].Content, "Content: tekst")
	assert.NotEmpty(t, req.SystemPrompt())

	condensation := f.model.CallsFor(domainllm.PurposeStyleCondensation)
	require.Len(t, condensation, 1)
	assert.Equal(t, 200, condensation[0].Request.MaxTokens)
	assert.Contains(t, condensation[0].Request.Messages[1].Content, "Formal Norwegian.")
}

func TestAnalyzeCondensationFailureKeepsGuide(t *testing.T) {
	f := newFixture(t)
	f.model.
		Enqueue(domainllm.PurposeStyleAnalysis, llmtest.Reply{Text: "guide"}).
		Enqueue(domainllm.PurposeStyleCondensation, llmtest.Reply{Err: errors.New("rate limited")})

	got, err := f.analyzer.Analyze(context.Background(), "text", "org-1")
	require.NoError(t, err)
	assert.Equal(t, "guide", got.StyleGuide)
	assert.Empty(t, got.CondensedStyle)
}

func TestAnalyzeFailure(t *testing.T) {
	f := newFixture(t)
	f.model.Enqueue(domainllm.PurposeStyleAnalysis, llmtest.Reply{
		Err: &domain.ProviderError{Provider: "openai", Err: errors.New("boom")},
	})

	_, err := f.analyzer.Analyze(context.Background(), "text", "org-1")
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Empty(t, f.model.CallsFor(domainllm.PurposeStyleCondensation))
}

func TestFindOrCreateReusesExactSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := f.documents(t, "org-1", 3)
	f.model.
		Always(domainllm.PurposeStyleAnalysis, llmtest.Reply{Text: "guide"}).
		Always(domainllm.PurposeStyleCondensation, llmtest.Reply{Text: "Write formal English in long sentences."})

	req := &domainllm.FindOrCreateStyleRequest{
		DocumentIDs:    []string{ids[0], ids[1]},
		OrganizationID: "org-1",
		UserID:         "user-1",
		Username:       "kari",
		CombinedText:   "text",
	}
	first, reused, err := f.analyzer.FindOrCreate(ctx, req)
	require.NoError(t, err)
	assert.False(t, reused)
	assert.Equal(t, "Style Constraint - kari - 2024-05-02 14:30", first.Name)
	assert.Equal(t, "Style constraint created by kari on 2024-05-02 14:30", first.Description)
	assert.Equal(t, "English", first.Constraints.StyleCharacteristics.Language)
	assert.Equal(t, "Long sentences", first.Constraints.StyleCharacteristics.SentenceStructure)
	assert.True(t, first.IsActive)

	// Same set in another order.
	req.DocumentIDs = []string{ids[1], ids[0]}
	second, reused, err := f.analyzer.FindOrCreate(ctx, req)
	require.NoError(t, err)
	assert.True(t, reused)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.model.CallsFor(domainllm.PurposeStyleAnalysis), 1)

	// A superset is a different reference set.
	req.DocumentIDs = ids
	third, reused, err := f.analyzer.FindOrCreate(ctx, req)
	require.NoError(t, err)
	assert.False(t, reused)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestFindOrCreateSkipsInactive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ids := f.documents(t, "org-1", 1)
	f.model.
		Always(domainllm.PurposeStyleAnalysis, llmtest.Reply{Text: "guide"}).
		Always(domainllm.PurposeStyleCondensation, llmtest.Reply{Text: "condensed"})

	req := &domainllm.FindOrCreateStyleRequest{DocumentIDs: ids, OrganizationID: "org-1", Username: "kari", CombinedText: "text"}
	first, _, err := f.analyzer.FindOrCreate(ctx, req)
	require.NoError(t, err)

	svc := NewConstraintService(memory.NewStyleConstraintRepository(f.store), memory.NewDocumentRepository(f.store), f.analyzer.logger)
	require.NoError(t, svc.Deactivate(ctx, first.ID, "org-1"))

	second, reused, err := f.analyzer.FindOrCreate(ctx, req)
	require.NoError(t, err)
	assert.False(t, reused)
	assert.NotEqual(t, first.ID, second.ID)

	active, err := svc.List(ctx, "org-1", false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	docs, err := svc.ReferenceDocuments(ctx, second.ID, "org-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, ids[0], docs[0].ID)

	_, err = svc.Get(ctx, second.ID, "org-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExtractCharacteristics(t *testing.T) {
	tests := []struct {
		name      string
		condensed string
		language  string
		tone      string
		sentences string
	}{
		{"empty", "", "Unknown", "Unknown", "Unknown"},
		{"norwegian formal short", "Write in Norwegian, formal tone, short sentences.", "Norwegian", "Formal", "Short sentences"},
		{"english casual", "Casual English with long sentences.", "English", "Casual", "Long sentences"},
		{"informal reads as formal", "An informal voice.", "Unknown", "Formal", "Unknown"},
		{"language is case sensitive", "write in english", "Unknown", "Unknown", "Unknown"},
		{"short without sentence", "Keep it short.", "Unknown", "Unknown", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCharacteristics(tt.condensed)
			assert.Equal(t, tt.language, got.Language)
			assert.Equal(t, tt.tone, got.Tone)
			assert.Equal(t, tt.sentences, got.SentenceStructure)
			assert.Equal(t, "Unknown", got.Perspective)
		})
	}
}
