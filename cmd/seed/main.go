package main

import (
	"context"
	"flag"
	"log"
	"time"

	"textvault/internal/capabilities"
	"textvault/internal/config"
	"textvault/internal/domain/models"
	"textvault/internal/prompts"
	"textvault/internal/repository/postgres"
	postgresDocsys "textvault/internal/repository/postgres/docsystem"
	postgresLLM "textvault/internal/repository/postgres/llm"
	"textvault/internal/seed"
	serviceDocsys "textvault/internal/service/docsystem"
	"textvault/internal/service/docsystem/converter"
	"textvault/internal/service/docsystem/converter/sanitizer"
	"textvault/internal/service/quota"
	"textvault/internal/service/settings"

	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before creating the schema (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only create the schema")
	seedDefaults := flag.Bool("seed-defaults", false, "Store the built-in templates, length buckets and model settings as global rows")
	sampleDocs := flag.Bool("sample-docs", false, "Create sample reference documents for --org")

	orgID := flag.String("org", "", "Organization to manage credits for")
	addBonus := flag.Int("add-bonus", 0, "Grant bonus generations to --org for the current period")
	setUsed := flag.Int("set-used", -1, "Set the generations used by --org")
	reset := flag.Bool("reset", false, "Reset the usage of --org now")
	createOrg := flag.String("create-org", "", "Create an organization with this name")
	plan := flag.String("plan", models.PlanExplorer, "Plan for --create-org (explorer, creator, master)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot drop tables in production environment")
	}

	logger, closeLog := config.NewLogger(cfg, "seed")
	defer closeLog()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		dropped, err := postgres.DropTables(ctx, pool, tables)
		if err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Printf("✅ Dropped %d tables", len(dropped))
	}

	log.Printf("📋 Ensuring database schema (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	ledger := quota.NewLedger(postgres.NewOrganizationRepository(repoConfig), logger)
	txManager := postgres.NewTransactionManager(pool, logger)

	catalog, err := prompts.Load()
	if err != nil {
		log.Fatalf("Failed to load built-in prompts: %v", err)
	}
	caps, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load model capabilities: %v", err)
	}
	settingsService := settings.NewService(
		postgresLLM.NewModelSettingsRepository(repoConfig),
		postgresLLM.NewLengthSettingsRepository(repoConfig),
		postgresLLM.NewPromptTemplateRepository(repoConfig),
		txManager,
		catalog,
		caps,
		settings.Fallback{Model: cfg.DefaultModel, Temperature: cfg.DefaultTemperature, MaxTokens: cfg.DefaultMaxTokens},
		logger,
	)
	docService := serviceDocsys.NewDocumentService(
		postgresDocsys.NewDocumentRepository(repoConfig),
		txManager,
		converter.NewRegistry(sanitizer.NewHTMLSanitizer()),
		logger,
	)
	seeder := seed.NewSeeder(settingsService, docService, catalog, logger)

	if *seedDefaults {
		report, err := seeder.Defaults(ctx)
		if err != nil {
			log.Fatalf("Failed to seed defaults: %v", err)
		}
		log.Printf("🌱 Defaults seeded: %d created, %d already present", report.Created, report.Skipped)
	}

	if *createOrg != "" {
		if !models.IsKnownPlan(*plan) {
			log.Fatalf("Unknown plan %q", *plan)
		}
		org, err := ledger.CreateOrganization(ctx, *createOrg, *plan)
		if err != nil {
			log.Fatalf("Failed to create organization: %v", err)
		}
		log.Printf("🏢 Created organization %s (%s, plan %s)", org.ID, org.Name, org.Plan)
		*orgID = org.ID
	}

	if *orgID == "" {
		if *addBonus != 0 || *setUsed >= 0 || *reset || *sampleDocs {
			log.Fatal("--add-bonus, --set-used, --reset and --sample-docs need --org")
		}
		return
	}

	if *sampleDocs {
		report, err := seeder.SampleDocuments(ctx, *orgID, cfg.DevUserID)
		if err != nil {
			log.Fatalf("Failed to seed sample documents: %v", err)
		}
		log.Printf("📄 Sample documents: %d created, %d already present", report.Created, report.Skipped)
	}

	if *reset {
		if _, err := ledger.ForceReset(ctx, *orgID); err != nil {
			log.Fatalf("Failed to reset usage: %v", err)
		}
	}
	if *setUsed >= 0 {
		if _, err := ledger.SetUsed(ctx, *orgID, *setUsed); err != nil {
			log.Fatalf("Failed to set usage: %v", err)
		}
	}
	if *addBonus != 0 {
		if _, err := ledger.AddBonusCredits(ctx, *orgID, *addBonus); err != nil {
			log.Fatalf("Failed to add bonus credits: %v", err)
		}
	}

	usage, err := ledger.Usage(ctx, *orgID)
	if err != nil {
		log.Fatalf("Failed to read usage: %v", err)
	}
	resetDate := "never"
	if usage.ResetDate != nil {
		resetDate = usage.ResetDate.Format(time.DateOnly)
	}
	log.Printf("📊 %s: plan=%s used=%d limit=%d remaining=%d bonus=%d next reset=%s",
		*orgID, usage.Plan, usage.Used, usage.Limit, usage.Remaining, usage.Bonus, resetDate)
}
