//go:build ignore

// prompt_preview loads a folder of reference documents into an in-memory
// store and prints the prompt a generation request would send. With -live the
// request runs for real against the configured provider.
//
//	go run scripts/prompt_preview.go -dir ./samples -type analysis
//	go run scripts/prompt_preview.go -mode new -concept "Årsrapport" -live -model lorem-fast
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"textvault/internal/capabilities"
	"textvault/internal/config"
	"textvault/internal/domain/models"
	docsysSvc "textvault/internal/domain/services/docsystem"
	domainllm "textvault/internal/domain/services/llm"
	"textvault/internal/prompts"
	"textvault/internal/repository/memory"
	serviceDocsys "textvault/internal/service/docsystem"
	"textvault/internal/service/docsystem/converter"
	"textvault/internal/service/docsystem/converter/sanitizer"
	"textvault/internal/service/generation"
	serviceLLM "textvault/internal/service/llm"
	"textvault/internal/service/quota"
	"textvault/internal/service/settings"
	"textvault/internal/service/style"
	"textvault/internal/service/templates"
	"textvault/internal/utils"

	loremgen "github.com/bozaro/golorem"
	"github.com/joho/godotenv"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

const previewOrgID = "preview-org"

func main() {
	dir := flag.String("dir", "", "Folder of .md/.html/.txt reference documents (lorem documents when empty)")
	mode := flag.String("mode", domainllm.GenerationExisting, "Generation mode (existing, new)")
	docType := flag.String("type", domainllm.DocumentTypeSummary, "Document type for existing mode")
	concept := flag.String("concept", "", "Concept for new mode")
	length := flag.String("length", "medium", "Length bucket")
	tags := flag.String("tags", "", "Comma separated tag filter")
	styleGuide := flag.String("style", "", "Style guide text to use instead of analysis")
	model := flag.String("model", "", "Model to use (defaults to DEFAULT_MODEL)")
	live := flag.Bool("live", false, "Call the model and print the generated document")
	verbose := flag.Bool("v", false, "Log service output to stderr")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if *model != "" {
		cfg.DefaultModel = *model
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx := context.Background()
	store := memory.NewStore()
	orgs := memory.NewOrganizationRepository(store)
	docRepo := memory.NewDocumentRepository(store)
	styleRepo := memory.NewStyleConstraintRepository(store)
	templateRepo := memory.NewPromptTemplateRepository(store)
	txManager := memory.NewTransactionManager(store)

	catalog := prompts.MustLoad()
	caps, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load model capabilities: %v", err)
	}

	ledger := quota.NewLedger(orgs, logger)
	reset := models.NextResetDate(time.Now())
	if err := orgs.Create(ctx, &models.Organization{
		ID:                     previewOrgID,
		Name:                   "Preview",
		Plan:                   models.PlanMaster,
		AIGenerationsResetDate: &reset,
	}); err != nil {
		log.Fatalf("Failed to create preview organization: %v", err)
	}

	htmlSanitizer := sanitizer.NewHTMLSanitizer()
	docService := serviceDocsys.NewDocumentService(docRepo, txManager, converter.NewRegistry(htmlSanitizer), logger)
	settingsService := settings.NewService(
		memory.NewModelSettingsRepository(store),
		memory.NewLengthSettingsRepository(store),
		templateRepo,
		txManager,
		catalog,
		caps,
		settings.Fallback{Model: cfg.DefaultModel, Temperature: cfg.DefaultTemperature, MaxTokens: cfg.DefaultMaxTokens},
		logger,
	)
	resolver := templates.NewResolver(templateRepo, catalog, logger)

	providerFactory := serviceLLM.NewProviderFactory(cfg)
	modelClient := serviceLLM.NewClient(serviceLLM.NewProviderRegistry(providerFactory), cfg.ModelTimeout, logger)

	orchestrator := generation.NewOrchestrator(generation.Deps{
		Documents:   docRepo,
		DocumentSvc: docService,
		TxManager:   txManager,
		Quota:       ledger,
		Settings:    settingsService,
		Styles:      styleRepo,
		Analyzer:    style.NewAnalyzer(modelClient, resolver, settingsService, catalog, styleRepo, logger),
		Templates:   resolver,
		Catalog:     catalog,
		Model:       modelClient,
		Sampler: generation.NewSampler(serviceLLM.NewTokenizer(), generation.SamplerOptions{
			MaxDocuments:        cfg.SamplerMaxDocuments,
			MaxCharsPerDocument: cfg.SamplerMaxChars,
			MaxTotalTokens:      cfg.SamplerMaxTokens,
		}),
		Sanitizer: htmlSanitizer,
		Logger:    logger,
	})

	var loaded int
	if *dir != "" {
		loaded, err = loadDirectory(ctx, docService, *dir)
	} else {
		loaded, err = loadLorem(ctx, docService)
	}
	if err != nil {
		log.Fatalf("Failed to load reference documents: %v", err)
	}
	fmt.Printf("%s📚 %d reference documents loaded%s\n", colorGray, loaded, colorReset)

	req := &domainllm.GenerateDocumentRequest{
		OrganizationID: previewOrgID,
		UserID:         "preview-user",
		Username:       "preview",
		GenerationType: *mode,
		DocumentType:   *docType,
		Concept:        *concept,
		DocumentLength: *length,
		StyleGuide:     *styleGuide,
		DebugMode:      !*live,
	}
	if *tags != "" {
		req.Tags = strings.Split(*tags, ",")
	}

	result, err := orchestrator.Generate(ctx, req)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	if result.Debug != nil {
		printDebug(result.Debug)
		return
	}
	if result.Document != nil {
		fmt.Printf("\n%s━━━ %s (%s) ━━━%s\n", colorGreen, result.Document.Title, result.Document.Slug, colorReset)
		fmt.Println(result.Document.Content)
		if result.Quota != nil {
			fmt.Printf("\n%sgenerations used: %d/%d%s\n", colorGray, result.Quota.Used, result.Quota.Limit, colorReset)
		}
	}
}

func printDebug(d *domainllm.DebugResult) {
	fmt.Printf("\n%s━━━ system message ━━━%s\n%s\n", colorCyan, colorReset, d.SystemMessage)
	fmt.Printf("\n%s━━━ prompt ━━━%s\n%s\n", colorYellow, colorReset, d.Prompt)
	fmt.Printf("\n%stemplate=%s model=%s temperature=%.2f max_tokens=%d%s\n",
		colorGray, d.TemplateType, d.Model, d.Temperature, d.MaxTokens, colorReset)
	fmt.Printf("%sdocuments=%d sample_tokens=%d combined_chars=%d%s\n",
		colorGray, d.DocumentCount, d.SampleTokens, d.CombinedContentLength, colorReset)
	for _, title := range d.DocumentTitles {
		fmt.Printf("%s  • %s%s\n", colorGray, title, colorReset)
	}
}

// loadDirectory stores every supported file in dir as a published document.
// Frontmatter fields override the file name and default status.
func loadDirectory(ctx context.Context, docs docsysSvc.DocumentService, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".md" && ext != ".html" && ext != ".txt") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return count, err
		}
		meta, body, err := utils.ParseFrontmatter(raw)
		if err != nil {
			return count, fmt.Errorf("%s: %w", entry.Name(), err)
		}

		req := &docsysSvc.CreateDocumentRequest{
			OrganizationID: previewOrgID,
			UserID:         "preview-user",
			Title:          meta.Title,
			Content:        body,
			Tags:           meta.Tags,
			Status:         meta.Status,
			Slug:           meta.Slug,
		}
		if req.Title == "" {
			req.Title = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		}
		if req.Status == "" {
			req.Status = "published"
		}
		if meta.Category != "" {
			req.CategoryID = &meta.Category
		}
		if _, err := docs.CreateDocument(ctx, req); err != nil {
			return count, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		count++
	}
	return count, nil
}

func loadLorem(ctx context.Context, docs docsysSvc.DocumentService) (int, error) {
	gen := loremgen.New()
	const n = 5
	for i := 0; i < n; i++ {
		var body strings.Builder
		for p := 0; p < 3; p++ {
			fmt.Fprintf(&body, "<p>%s</p>", gen.Paragraph(3, 6))
		}
		_, err := docs.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
			OrganizationID: previewOrgID,
			UserID:         "preview-user",
			Title:          strings.TrimSuffix(gen.Sentence(2, 5), "."),
			Content:        body.String(),
			Status:         "published",
		})
		if err != nil {
			return i, err
		}
	}
	return n, nil
}
