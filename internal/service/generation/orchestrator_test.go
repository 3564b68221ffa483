package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textvault/internal/domain"
	"textvault/internal/domain/models"
	"textvault/internal/domain/models/docsystem"
	llmModels "textvault/internal/domain/models/llm"
	"textvault/internal/domain/repositories"
	docsysSvc "textvault/internal/domain/services/docsystem"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/prompts"
	"textvault/internal/repository/memory"
	docService "textvault/internal/service/docsystem"
	"textvault/internal/service/docsystem/converter"
	"textvault/internal/service/docsystem/converter/sanitizer"
	"textvault/internal/service/llm/llmtest"
	"textvault/internal/service/quota"
	"textvault/internal/service/style"
	"textvault/internal/service/templates"
)

// testSettings resolves lengths from the built-in catalog.
type testSettings struct {
	catalog   *prompts.Catalog
	maxTokens int
}

func (s testSettings) ActiveModelSettings(context.Context) (*domainllm.EffectiveModelSettings, error) {
	return &domainllm.EffectiveModelSettings{
		Model:               "gpt-4o-mini",
		Temperature:         0.7,
		AnalysisTemperature: 0.3,
		MaxTokens:           s.maxTokens,
		Source:              "config",
	}, nil
}

func (s testSettings) LengthSettings(_ context.Context, name, _ string) (*domainllm.EffectiveLength, error) {
	l := s.catalog.LengthOrDefault(name)
	return &domainllm.EffectiveLength{
		Name:         l.Name,
		Description:  l.Phrase,
		TargetTokens: l.TargetTokens,
		Source:       "builtin",
	}, nil
}

type fixture struct {
	orch   *Orchestrator
	model  *llmtest.ScriptedModel
	store  *memory.Store
	orgs   repositories.OrganizationRepository
	docSvc docsysSvc.DocumentService
	orgID  string
}

func newFixture(t *testing.T, plan string, used int) *fixture {
	return newFixtureWithSettings(t, plan, used, 4096)
}

func newFixtureWithSettings(t *testing.T, plan string, used, maxTokens int) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	catalog := prompts.MustLoad()
	model := llmtest.New()
	settings := testSettings{catalog: catalog, maxTokens: maxTokens}

	docRepo := memory.NewDocumentRepository(store)
	txManager := memory.NewTransactionManager(store)
	san := sanitizer.NewHTMLSanitizer()
	docSvc := docService.NewDocumentService(docRepo, txManager, converter.NewRegistry(san), logger)
	resolver := templates.NewResolver(memory.NewPromptTemplateRepository(store), catalog, logger)
	styles := memory.NewStyleConstraintRepository(store)
	orgs := memory.NewOrganizationRepository(store)

	reset := time.Now().AddDate(0, 1, 0)
	org := &models.Organization{Name: "Acme", Plan: plan, AIGenerationsUsed: used, AIGenerationsResetDate: &reset}
	require.NoError(t, orgs.Create(context.Background(), org))

	orch := NewOrchestrator(Deps{
		Documents:   docRepo,
		DocumentSvc: docSvc,
		TxManager:   txManager,
		Quota:       quota.NewLedger(orgs, logger),
		Settings:    settings,
		Styles:      styles,
		Analyzer:    style.NewAnalyzer(model, resolver, settings, catalog, styles, logger),
		Templates:   resolver,
		Catalog:     catalog,
		Model:       model,
		Sampler:     NewSampler(counterFunc(func(_, text string) int { return len(text) / 4 }), SamplerOptions{}),
		Sanitizer:   san,
		Logger:      logger,
	})
	return &fixture{orch: orch, model: model, store: store, orgs: orgs, docSvc: docSvc, orgID: org.ID}
}

func (f *fixture) document(t *testing.T, title, body string, tags ...string) *docsystem.Document {
	t.Helper()
	doc, err := f.docSvc.CreateDocument(context.Background(), &docsysSvc.CreateDocumentRequest{
		OrganizationID: f.orgID,
		UserID:         "user-1",
		Title:          title,
		Content:        body,
		Tags:           tags,
	})
	require.NoError(t, err)
	return doc
}

func (f *fixture) request(mut func(*domainllm.GenerateDocumentRequest)) *domainllm.GenerateDocumentRequest {
	req := &domainllm.GenerateDocumentRequest{
		OrganizationID: f.orgID,
		UserID:         "user-1",
		Username:       "kari",
	}
	if mut != nil {
		mut(req)
	}
	return req
}

func (f *fixture) used(t *testing.T) int {
	t.Helper()
	org, err := f.orgs.GetByID(context.Background(), f.orgID)
	require.NoError(t, err)
	return org.AIGenerationsUsed
}

func (f *fixture) documentCount(t *testing.T) int {
	t.Helper()
	page, err := f.docSvc.ListDocuments(context.Background(), &docsystem.DocumentFilter{OrganizationID: f.orgID})
	require.NoError(t, err)
	return len(page.Documents)
}

func stageOf(t *testing.T, err error) string {
	t.Helper()
	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr), "expected a stage error, got %v", err)
	return stageErr.Stage
}

func TestGenerateSummary(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	f.document(t, "Møtereferat", "<p>Vi diskuterte budsjettet.</p>", "møte")
	f.model.Enqueue(domainllm.PurposeGeneration, llmtest.Reply{
		Text: "<h1>Oppsummering av møtet</h1>   <p>Budsjettet ble <script>alert(1)</script>diskutert.</p>",
	})

	res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.Tags = []string{"møte"}
	}))
	require.NoError(t, err)
	require.NotNil(t, res.Document)

	doc := res.Document
	assert.Equal(t, "Oppsummering av møtet", doc.Title)
	assert.Equal(t, docsystem.StatusDraft, doc.Status)
	assert.Equal(t, []string{"møte"}, doc.Tags)
	assert.NotContains(t, doc.Content, "<script>")
	assert.True(t, strings.HasPrefix(doc.Content, "<h1>Oppsummering av møtet</h1>\n<p>"))

	require.NotNil(t, res.Quota)
	assert.Equal(t, 1, res.Quota.Used)
	assert.Equal(t, 1, f.used(t))

	calls := f.model.CallsFor(domainllm.PurposeGeneration)
	require.Len(t, calls, 1)
	req := calls[0].Request
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 4096, req.MaxTokens)
	assert.NotEmpty(t, req.SystemPrompt())
	assert.Contains(t, req.Messages[1].Content, "Title: Møtereferat\n\nContent: Vi diskuterte budsjettet.")
	assert.Contains(t, req.Messages[1].Content, "medium")
	assert.Empty(t, f.model.CallsFor(domainllm.PurposeTitle))
}

func TestGenerateQuotaExceeded(t *testing.T) {
	f := newFixture(t, models.PlanExplorer, 3)
	f.document(t, "Ref", "<p>text</p>")

	_, err := f.orch.Generate(context.Background(), f.request(nil))
	require.Error(t, err)
	assert.Equal(t, domainllm.StageValidating, stageOf(t, err))

	var quotaErr *domain.QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, "Explorer", quotaErr.PlanName)
	assert.Equal(t, 3, quotaErr.Used)
	assert.Equal(t, 3, quotaErr.Limit)

	assert.Empty(t, f.model.Calls())
	assert.Equal(t, 1, f.documentCount(t))
	assert.Equal(t, 3, f.used(t))
}

func TestGenerateRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		mut     func(*domainllm.GenerateDocumentRequest)
		message string
		stage   string
	}{
		{
			name:    "unknown document type",
			mut:     func(r *domainllm.GenerateDocumentRequest) { r.DocumentType = "poem" },
			message: "Invalid document type. Must be one of: summary, analysis, comparison.",
			stage:   domainllm.StageValidating,
		},
		{
			name:    "unknown generation type",
			mut:     func(r *domainllm.GenerateDocumentRequest) { r.GenerationType = "remix" },
			message: "Invalid generation type. Must be one of: existing, new.",
			stage:   domainllm.StageValidating,
		},
		{
			name: "new content without references",
			mut: func(r *domainllm.GenerateDocumentRequest) {
				r.GenerationType = domainllm.GenerationNew
				r.Concept = "A story"
			},
			message: "Please select at least one document to use as a style reference.",
			stage:   domainllm.StageValidating,
		},
		{
			name: "no matching documents",
			mut: func(r *domainllm.GenerateDocumentRequest) {
				r.Tags = []string{"missing"}
			},
			message: "No documents found matching the specified filters.",
			stage:   domainllm.StageSampling,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, models.PlanCreator, 0)
			f.document(t, "Ref", "<p>text</p>")

			_, err := f.orch.Generate(context.Background(), f.request(tt.mut))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, tt.stage, stageOf(t, err))
			assert.Empty(t, f.model.Calls())
			assert.Zero(t, f.used(t))
		})
	}
}

func TestGenerateRejectsDeletedStatusFilter(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	f.document(t, "Ref", "<p>text</p>")
	status := string(docsystem.StatusDeleted)

	_, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.Status = &status
	}))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGenerateSamplesMostRecentThree(t *testing.T) {
	f := newFixtureWithSettings(t, models.PlanCreator, 0, 0)
	for i := 0; i < 5; i++ {
		f.document(t, fmt.Sprintf("Doc %d", i), fmt.Sprintf("<p>Body %d</p>", i))
	}

	res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.DebugMode = true
	}))
	require.NoError(t, err)
	require.NotNil(t, res.Debug)

	dbg := res.Debug
	assert.Equal(t, 5, dbg.DocumentCount)
	assert.Contains(t, dbg.Prompt, "Title: Doc 4")
	assert.Contains(t, dbg.Prompt, "Title: Doc 3")
	assert.Contains(t, dbg.Prompt, "Title: Doc 2")
	assert.NotContains(t, dbg.Prompt, "Title: Doc 1")
	assert.NotContains(t, dbg.Prompt, "Title: Doc 0")
	assert.Equal(t, 2, strings.Count(dbg.Prompt, SampleSeparator))
	assert.Equal(t, "summary", dbg.TemplateType)
	assert.Equal(t, 3000, dbg.MaxTokens, "falls back to the length target")
	assert.Positive(t, dbg.SampleTokens)
}

func TestGenerateDebugDoesNotBill(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	f.document(t, "Ref", "<p>text</p>")

	res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.DebugMode = true
		r.DocumentType = domainllm.DocumentTypeAnalysis
	}))
	require.NoError(t, err)
	require.NotNil(t, res.Debug)
	assert.True(t, res.Debug.Debug)
	assert.Equal(t, "analysis", res.Debug.TemplateType)
	assert.Equal(t, 4096, res.Debug.MaxTokens)
	assert.NotEmpty(t, res.Debug.SystemMessage)
	assert.Contains(t, res.Debug.Prompt, "Length: Ensure your analysis is medium")

	assert.Empty(t, f.model.Calls())
	assert.Zero(t, f.used(t))
	assert.Equal(t, 1, f.documentCount(t))
}

func TestGenerateStrictLengthConstraint(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	f.document(t, "Ref", "<p>text</p>")

	res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.DebugMode = true
		r.DocumentLength = llmModels.LengthMicro
	}))
	require.NoError(t, err)
	assert.Contains(t, res.Debug.Prompt, "Length: Your response MUST be 50-160 characters (extremely concise)")
	assert.NotContains(t, res.Debug.Prompt, "Length: Ensure your summary is")
}

func TestGenerateNewContentAnalyzesStyle(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	ref := f.document(t, "Kåseri", "<p>Det var en gang.</p>")
	f.model.
		Enqueue(domainllm.PurposeStyleAnalysis, llmtest.Reply{Text: "Write short, playful sentences."}).
		Enqueue(domainllm.PurposeStyleCondensation, llmtest.Reply{Text: "Short and playful."}).
		Enqueue(domainllm.PurposeGeneration, llmtest.Reply{Text: "Plain text without markup"}).
		Enqueue(domainllm.PurposeTitle, llmtest.Reply{Text: `"En leken tittel"`})

	res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.GenerationType = domainllm.GenerationNew
		r.SelectedDocumentIDs = []string{ref.ID}
		r.Concept = "En tur i skogen"
	}))
	require.NoError(t, err)

	assert.Equal(t, "En leken tittel", res.Document.Title)
	assert.Equal(t, "<p>Plain text without markup</p>\n", res.Document.Content)

	gen := f.model.CallsFor(domainllm.PurposeGeneration)
	require.Len(t, gen, 1)
	prompt := gen[0].Request.Messages[1].Content
	assert.Contains(t, prompt, "En tur i skogen")
	assert.Contains(t, prompt, "DETAILED STYLE GUIDE:\nWrite short, playful sentences.")

	title := f.model.CallsFor(domainllm.PurposeTitle)
	require.Len(t, title, 1)
	assert.Equal(t, 30, title[0].Request.MaxTokens)
	assert.Contains(t, title[0].Request.Messages[1].Content, "Plain text without markup")

	// The constraint is stored and reused by the next request.
	f.model.Enqueue(domainllm.PurposeGeneration, llmtest.Reply{Text: "<h1>Again</h1>"})
	_, err = f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.GenerationType = domainllm.GenerationNew
		r.SelectedDocumentIDs = []string{ref.ID}
		r.Concept = "En tur til fjells"
	}))
	require.NoError(t, err)
	assert.Len(t, f.model.CallsFor(domainllm.PurposeStyleAnalysis), 1)
	assert.Equal(t, 2, f.used(t))
}

func TestGenerateStyleAnalysisFailureUsesPlaceholder(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	ref := f.document(t, "Ref", "<p>text</p>")
	f.model.
		Enqueue(domainllm.PurposeStyleAnalysis, llmtest.Reply{Err: errors.New("timeout")}).
		Enqueue(domainllm.PurposeGeneration, llmtest.Reply{Text: "<h1>Done</h1>"})

	res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.GenerationType = domainllm.GenerationNew
		r.SelectedDocumentIDs = []string{ref.ID}
		r.Concept = "Concept"
	}))
	require.NoError(t, err)
	assert.Equal(t, "Done", res.Document.Title)

	prompt := f.model.CallsFor(domainllm.PurposeGeneration)[0].Request.Messages[1].Content
	assert.NotContains(t, prompt, "DETAILED STYLE GUIDE")
	assert.Contains(t, prompt, "Style reference (analyze this carefully")
}

func TestGenerateKeepsCallerTitle(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	f.document(t, "Ref", "<p>text</p>")
	f.model.Enqueue(domainllm.PurposeGeneration, llmtest.Reply{Text: "<h1>Model Heading</h1><p>x</p>"})
	category := "reports"

	res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.Title = "  Quarterly notes  "
		r.DocumentCategory = &category
	}))
	require.NoError(t, err)
	assert.Equal(t, "Quarterly notes", res.Document.Title)
	require.NotNil(t, res.Document.CategoryID)
	assert.Equal(t, "reports", *res.Document.CategoryID)
}

func TestGenerateTitleFailureKeepsDefault(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	f.document(t, "Ref", "<p>text</p>")
	f.model.
		Enqueue(domainllm.PurposeGeneration, llmtest.Reply{Text: "<p>No heading here</p>"}).
		Enqueue(domainllm.PurposeTitle, llmtest.Reply{Err: errors.New("rate limited")})

	res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.DocumentType = domainllm.DocumentTypeComparison
	}))
	require.NoError(t, err)
	assert.Equal(t, "AI Generated Comparison", res.Document.Title)
}

func TestGenerateModelFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply llmtest.Reply
	}{
		{"provider error", llmtest.Reply{Err: &domain.ProviderError{Provider: "openai", Err: errors.New("boom")}}},
		{"empty answer", llmtest.Reply{Text: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, models.PlanCreator, 0)
			f.document(t, "Ref", "<p>text</p>")
			f.model.Enqueue(domainllm.PurposeGeneration, tt.reply)

			_, err := f.orch.Generate(context.Background(), f.request(nil))
			require.Error(t, err)
			assert.Equal(t, domainllm.StageCallingModel, stageOf(t, err))
			assert.ErrorIs(t, err, domain.ErrProvider)
			assert.Zero(t, f.used(t))
			assert.Equal(t, 1, f.documentCount(t))
		})
	}
}

func TestGeneratePersistFailureDoesNotBill(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	ref := f.document(t, "Ref", "<p>text</p>")
	f.model.Enqueue(domainllm.PurposeGeneration, llmtest.Reply{Text: "<h1>Summary</h1><p>Body</p>"})

	_, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.SelectedDocumentIDs = []string{ref.ID}
		r.Tags = []string{strings.Repeat("t", 65)}
	}))
	require.Error(t, err)
	assert.Equal(t, domainllm.StagePersisting, stageOf(t, err))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.used(t))
	assert.Equal(t, 1, f.documentCount(t))
}

func TestGenerateStyleOnly(t *testing.T) {
	f := newFixture(t, models.PlanExplorer, 3)
	a := f.document(t, "A", "<p>Alpha</p>")
	b := f.document(t, "B", "<p>Beta</p>")
	f.model.
		Enqueue(domainllm.PurposeStyleAnalysis, llmtest.Reply{Text: "Guide"}).
		Enqueue(domainllm.PurposeStyleCondensation, llmtest.Reply{Text: "Condensed"})

	styleOnly := func(r *domainllm.GenerateDocumentRequest) {
		r.AnalyzeStyleOnly = true
		r.SelectedDocumentIDs = []string{b.ID, a.ID}
	}

	first, err := f.orch.Generate(context.Background(), f.request(styleOnly))
	require.NoError(t, err, "style-only requests are not billed, so an exhausted quota is fine")
	require.NotNil(t, first.StyleOnly)
	assert.Equal(t, "Style analysis complete", first.StyleOnly.Message)
	assert.Equal(t, "Guide", first.StyleOnly.StyleGuide)
	assert.Equal(t, "Condensed", first.StyleOnly.CondensedStyle)
	assert.False(t, first.StyleOnly.Reused)
	assert.Equal(t, 2, first.StyleOnly.DocumentCount)
	assert.NotEmpty(t, first.StyleOnly.StyleConstraintID)

	second, err := f.orch.Generate(context.Background(), f.request(styleOnly))
	require.NoError(t, err)
	assert.Equal(t, "Found existing style constraint for these documents", second.StyleOnly.Message)
	assert.True(t, second.StyleOnly.Reused)
	assert.Equal(t, first.StyleOnly.StyleConstraintID, second.StyleOnly.StyleConstraintID)

	id := first.StyleOnly.StyleConstraintID
	third, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		styleOnly(r)
		r.StyleConstraintID = &id
	}))
	require.NoError(t, err)
	assert.Equal(t, "Using existing style constraint", third.StyleOnly.Message)

	assert.Len(t, f.model.CallsFor(domainllm.PurposeStyleAnalysis), 1)
	assert.Equal(t, 3, f.used(t))
}

func TestGenerateConstraintReferencesResolvedDocuments(t *testing.T) {
	tests := []struct {
		name  string
		extra func(t *testing.T, f *fixture) string
	}{
		{
			name: "document from another organization",
			extra: func(t *testing.T, f *fixture) string {
				doc, err := f.docSvc.CreateDocument(context.Background(), &docsysSvc.CreateDocumentRequest{
					OrganizationID: "other-org",
					UserID:         "user-2",
					Title:          "Foreign",
					Content:        "<p>Not ours</p>",
				})
				require.NoError(t, err)
				return doc.ID
			},
		},
		{
			name: "unknown document id",
			extra: func(*testing.T, *fixture) string {
				return "00000000-0000-0000-0000-000000000000"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, models.PlanCreator, 0)
			own := f.document(t, "Own", "<p>Ours</p>")
			extra := tt.extra(t, f)
			f.model.
				Enqueue(domainllm.PurposeStyleAnalysis, llmtest.Reply{Text: "Guide"}).
				Enqueue(domainllm.PurposeStyleCondensation, llmtest.Reply{Text: "Condensed"})

			res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
				r.AnalyzeStyleOnly = true
				r.SelectedDocumentIDs = []string{own.ID, extra}
			}))
			require.NoError(t, err)
			require.NotNil(t, res.StyleOnly)
			assert.Equal(t, 1, res.StyleOnly.DocumentCount)

			sc, err := memory.NewStyleConstraintRepository(f.store).GetByID(context.Background(), res.StyleOnly.StyleConstraintID, f.orgID)
			require.NoError(t, err)
			assert.Equal(t, []string{own.ID}, sc.ReferenceDocumentIDs)

			again, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
				r.AnalyzeStyleOnly = true
				r.SelectedDocumentIDs = []string{own.ID}
			}))
			require.NoError(t, err)
			assert.True(t, again.StyleOnly.Reused)
			assert.Equal(t, sc.ID, again.StyleOnly.StyleConstraintID)
		})
	}
}

func TestGenerateStyleOnlyFailure(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	f.document(t, "A", "<p>Alpha</p>")
	f.model.Enqueue(domainllm.PurposeStyleAnalysis, llmtest.Reply{Err: errors.New("down")})

	_, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.AnalyzeStyleOnly = true
	}))
	require.Error(t, err)
	assert.Equal(t, domainllm.StageStyleResolving, stageOf(t, err))
	assert.Contains(t, err.Error(), "failed to analyze document style")
}

func TestGenerateUsesStoredConstraint(t *testing.T) {
	f := newFixture(t, models.PlanCreator, 0)
	ref := f.document(t, "Ref", "<p>text</p>")
	orgID := f.orgID
	sc := &llmModels.StyleConstraint{
		Name:           "House style",
		Constraints:    llmModels.StylePayload{FullStyleGuide: "Use the house style."},
		OrganizationID: &orgID,
		IsActive:       true,
	}
	require.NoError(t, memory.NewStyleConstraintRepository(f.store).Create(context.Background(), sc))

	res, err := f.orch.Generate(context.Background(), f.request(func(r *domainllm.GenerateDocumentRequest) {
		r.GenerationType = domainllm.GenerationNew
		r.SelectedDocumentIDs = []string{ref.ID}
		r.Concept = "Concept"
		r.StyleConstraintID = &sc.ID
		r.DebugMode = true
	}))
	require.NoError(t, err)
	require.NotNil(t, res.Debug.StyleConstraintID)
	assert.Equal(t, sc.ID, *res.Debug.StyleConstraintID)
	assert.Equal(t, "new_content", res.Debug.TemplateType)
	assert.Contains(t, res.Debug.Prompt, "Use the house style.")
	assert.Empty(t, f.model.CallsFor(domainllm.PurposeStyleAnalysis))
}
