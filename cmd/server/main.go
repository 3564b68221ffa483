package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"textvault/internal/auth"
	"textvault/internal/capabilities"
	"textvault/internal/config"
	"textvault/internal/domain/models"
	"textvault/internal/handler"
	"textvault/internal/middleware"
	"textvault/internal/prompts"
	serviceDocsys "textvault/internal/service/docsystem"
	"textvault/internal/service/docsystem/converter"
	"textvault/internal/service/docsystem/converter/sanitizer"
	"textvault/internal/service/generation"
	serviceLLM "textvault/internal/service/llm"
	"textvault/internal/service/quota"
	"textvault/internal/service/settings"
	"textvault/internal/service/style"
	"textvault/internal/service/templates"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog := config.NewLogger(cfg, "server")
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage", cfg.Storage,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Authentication: JWKS in every deployed environment, dev identity locally
	var jwtVerifier auth.JWTVerifier
	devIdentity := models.Identity{
		UserID:         cfg.DevUserID,
		Username:       cfg.DevUsername,
		OrganizationID: cfg.DevOrgID,
		Role:           cfg.DevRole,
	}
	if cfg.AuthJWKSURL != "" {
		v, err := auth.NewJWTVerifier(ctx, cfg.AuthJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer v.Close()
		jwtVerifier = v
	} else {
		if cfg.Environment == "prod" {
			log.Fatal("AUTH_JWKS_URL is required in production")
		}
		logger.Warn("DEV AUTH: every request runs as the dev identity",
			"org_id", devIdentity.OrganizationID,
			"role", devIdentity.Role,
		)
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.close()

	catalog, err := prompts.Load()
	if err != nil {
		log.Fatalf("Failed to load built-in prompts: %v", err)
	}

	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}

	// LLM providers are created lazily, on the first request for their models
	providerFactory := serviceLLM.NewProviderFactory(cfg)
	providerRegistry := serviceLLM.NewProviderRegistry(providerFactory)
	if err := providerRegistry.Validate(); err != nil {
		log.Fatalf("Failed to setup LLM providers: %v", err)
	}
	modelClient := serviceLLM.NewClient(providerRegistry, cfg.ModelTimeout, logger)
	logger.Info("llm providers available", "providers", providerFactory.Available())

	// Services
	htmlSanitizer := sanitizer.NewHTMLSanitizer()
	docService := serviceDocsys.NewDocumentService(store.Documents, store.TxManager, converter.NewRegistry(htmlSanitizer), logger)
	settingsService := settings.NewService(
		store.ModelSettings,
		store.LengthSettings,
		store.Templates,
		store.TxManager,
		catalog,
		capabilityRegistry,
		settings.Fallback{
			Model:       cfg.DefaultModel,
			Temperature: cfg.DefaultTemperature,
			MaxTokens:   cfg.DefaultMaxTokens,
		},
		logger,
	)
	resolver := templates.NewResolver(store.Templates, catalog, logger)
	ledger := quota.NewLedger(store.Organizations, logger)
	analyzer := style.NewAnalyzer(modelClient, resolver, settingsService, catalog, store.StyleConstraints, logger)
	constraintService := style.NewConstraintService(store.StyleConstraints, store.Documents, logger)

	sampler := generation.NewSampler(serviceLLM.NewTokenizer(), generation.SamplerOptions{
		MaxDocuments:        cfg.SamplerMaxDocuments,
		MaxCharsPerDocument: cfg.SamplerMaxChars,
		MaxTotalTokens:      cfg.SamplerMaxTokens,
	})

	orchestrator := generation.NewOrchestrator(generation.Deps{
		Documents:   store.Documents,
		DocumentSvc: docService,
		TxManager:   store.TxManager,
		Quota:       ledger,
		Settings:    settingsService,
		Styles:      store.StyleConstraints,
		Analyzer:    analyzer,
		Templates:   resolver,
		Catalog:     catalog,
		Model:       modelClient,
		Sampler:     sampler,
		Sanitizer:   htmlSanitizer,
		Logger:      logger,
	})
	formatter := generation.NewFormatter(modelClient, resolver, settingsService, htmlSanitizer, logger)

	// Handlers
	docHandler := handler.NewDocumentHandler(docService, logger)
	generationHandler := handler.NewGenerationHandler(orchestrator, formatter, ledger, logger)
	settingsHandler := handler.NewSettingsHandler(settingsService, logger)
	styleHandler := handler.NewStyleHandler(constraintService, logger)
	modelsHandler := handler.NewModelsHandler(providerFactory, capabilityRegistry, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", docHandler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Document routes
	mux.HandleFunc("GET /api/documents", docHandler.ListDocuments)
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents/{slug}", docHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{slug}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{slug}", docHandler.DeleteDocument)
	mux.HandleFunc("GET /api/documents/{slug}/versions", docHandler.ListVersions)
	mux.HandleFunc("POST /api/documents/{slug}/versions", docHandler.CreateVersion)
	mux.HandleFunc("GET /api/documents/{slug}/export", docHandler.ExportDocument)
	mux.HandleFunc("POST /api/bulk/documents/{action}", docHandler.BulkAction)

	// AI routes
	mux.HandleFunc("POST /api/ai/generate", generationHandler.Generate)
	mux.HandleFunc("POST /api/ai/format", generationHandler.Format)
	mux.HandleFunc("GET /api/ai/quota", generationHandler.Quota)

	// Style constraint routes
	mux.HandleFunc("GET /api/style-constraints", styleHandler.ListConstraints)
	mux.HandleFunc("GET /api/style-constraints/{id}", styleHandler.GetConstraint)
	mux.HandleFunc("GET /api/style-constraints/{id}/reference-documents", styleHandler.ReferenceDocuments)
	mux.HandleFunc("DELETE /api/style-constraints/{id}", styleHandler.DeactivateConstraint)

	// Settings routes
	mux.HandleFunc("GET /api/ai/templates", settingsHandler.ListTemplates)
	mux.HandleFunc("POST /api/ai/templates", settingsHandler.CreateTemplate)
	mux.HandleFunc("PATCH /api/ai/templates/{id}", settingsHandler.UpdateTemplate)
	mux.HandleFunc("DELETE /api/ai/templates/{id}", settingsHandler.DeactivateTemplate)
	mux.HandleFunc("GET /api/ai/model-settings", settingsHandler.ListModelSettings)
	mux.HandleFunc("POST /api/ai/model-settings", settingsHandler.CreateModelSettings)
	mux.HandleFunc("PATCH /api/ai/model-settings/{id}", settingsHandler.UpdateModelSettings)
	mux.HandleFunc("GET /api/ai/length-settings", settingsHandler.ListLengthSettings)
	mux.HandleFunc("POST /api/ai/length-settings", settingsHandler.CreateLengthSettings)
	mux.HandleFunc("PATCH /api/ai/length-settings/{id}", settingsHandler.UpdateLengthSettings)

	// Model capabilities routes
	mux.HandleFunc("GET /api/models/capabilities", modelsHandler.GetCapabilities)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Metrics → Recovery → Auth → Routes
	h = middleware.AuthMiddleware(jwtVerifier, devIdentity, logger)(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.Metrics(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// Generation waits on the model; leave room beyond its timeout
		WriteTimeout: cfg.ModelTimeout*3 + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
