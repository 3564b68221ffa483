package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/capabilities"
	"textvault/internal/domain/models/docsystem"
	llmModels "textvault/internal/domain/models/llm"
	"textvault/internal/prompts"
	"textvault/internal/repository/memory"
	serviceDocsys "textvault/internal/service/docsystem"
	"textvault/internal/service/docsystem/converter"
	"textvault/internal/service/docsystem/converter/sanitizer"
	"textvault/internal/service/settings"
)

type fixture struct {
	seeder   *Seeder
	settings *settings.Service
	catalog  *prompts.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := prompts.MustLoad()
	caps, err := capabilities.NewRegistry()
	require.NoError(t, err)

	txManager := memory.NewTransactionManager(store)
	svc := settings.NewService(
		memory.NewModelSettingsRepository(store),
		memory.NewLengthSettingsRepository(store),
		memory.NewPromptTemplateRepository(store),
		txManager,
		catalog,
		caps,
		settings.Fallback{Model: "gpt-3.5-turbo-0125", Temperature: 0.7, MaxTokens: 4000},
		logger,
	)
	docs := serviceDocsys.NewDocumentService(
		memory.NewDocumentRepository(store),
		txManager,
		converter.NewRegistry(sanitizer.NewHTMLSanitizer()),
		logger,
	)
	return &fixture{
		seeder:   NewSeeder(svc, docs, catalog, logger),
		settings: svc,
		catalog:  catalog,
	}
}

func TestDefaultsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	templates := 0
	for _, tt := range llmModels.TemplateTypes {
		if _, ok := f.catalog.Template(string(tt)); ok {
			templates++
		}
	}
	total := templates + len(f.catalog.Lengths()) + len(f.catalog.Models())

	first, err := f.seeder.Defaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, total, first.Created)
	assert.Zero(t, first.Skipped)

	second, err := f.seeder.Defaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, total, second.Skipped)

	rows, err := f.settings.ListModelSettings(ctx)
	require.NoError(t, err)
	require.Len(t, rows, len(f.catalog.Models()))
	defaults := 0
	for _, row := range rows {
		if row.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)

	length, err := f.settings.LengthSettings(ctx, "short", "")
	require.NoError(t, err)
	assert.Equal(t, settings.SourceGlobal, length.Source)
	assert.Equal(t, "short (approximately 500-750 words)", length.Description)
}

func TestSampleDocuments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.seeder.SampleDocuments(ctx, "org-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, len(sampleDocuments), first.Created)

	second, err := f.seeder.SampleDocuments(ctx, "org-1", "user-1")
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, len(sampleDocuments), second.Skipped)

	doc, err := f.seeder.documents.GetDocument(ctx, "org-1", "styremote-mars", nil)
	require.NoError(t, err)
	assert.Equal(t, docsystem.StatusPublished, doc.Status)
	assert.Equal(t, 1, doc.Version)
}

func TestSampleDocumentsNeedsDocumentService(t *testing.T) {
	s := NewSeeder(nil, nil, prompts.MustLoad(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := s.SampleDocuments(context.Background(), "org-1", "user-1")
	assert.Error(t, err)
}
