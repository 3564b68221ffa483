package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"textvault/internal/config"
	"textvault/internal/domain/models"
	"textvault/internal/domain/repositories"
	docsysRepo "textvault/internal/domain/repositories/docsystem"
	llmRepo "textvault/internal/domain/repositories/llm"
	"textvault/internal/repository/memory"
	"textvault/internal/repository/postgres"
	postgresDocsys "textvault/internal/repository/postgres/docsystem"
	postgresLLM "textvault/internal/repository/postgres/llm"
)

// storage is the repository set the services run on.
type storage struct {
	Organizations    repositories.OrganizationRepository
	Documents        docsysRepo.DocumentRepository
	StyleConstraints llmRepo.StyleConstraintRepository
	Templates        llmRepo.PromptTemplateRepository
	ModelSettings    llmRepo.ModelSettingsRepository
	LengthSettings   llmRepo.LengthSettingsRepository
	TxManager        repositories.TransactionManager

	close func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return openMemory(ctx, cfg, logger)
	case config.StoragePostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown STORAGE %q (want %s or %s)", cfg.Storage, config.StoragePostgres, config.StorageMemory)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		"max_conns", pool.Config().MaxConns,
		"min_conns", pool.Config().MinConns,
		"table_prefix", cfg.TablePrefix,
	)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	return &storage{
		Organizations:    postgres.NewOrganizationRepository(repoConfig),
		Documents:        postgresDocsys.NewDocumentRepository(repoConfig),
		StyleConstraints: postgresLLM.NewStyleConstraintRepository(repoConfig),
		Templates:        postgresLLM.NewPromptTemplateRepository(repoConfig),
		ModelSettings:    postgresLLM.NewModelSettingsRepository(repoConfig),
		LengthSettings:   postgresLLM.NewLengthSettingsRepository(repoConfig),
		TxManager:        postgres.NewTransactionManager(pool, logger),
		close:            pool.Close,
	}, nil
}

// openMemory keeps everything in process. The dev organization is created so
// the dev identity has somewhere to write.
func openMemory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	store := memory.NewStore()
	s := &storage{
		Organizations:    memory.NewOrganizationRepository(store),
		Documents:        memory.NewDocumentRepository(store),
		StyleConstraints: memory.NewStyleConstraintRepository(store),
		Templates:        memory.NewPromptTemplateRepository(store),
		ModelSettings:    memory.NewModelSettingsRepository(store),
		LengthSettings:   memory.NewLengthSettingsRepository(store),
		TxManager:        memory.NewTransactionManager(store),
		close:            func() {},
	}

	reset := models.NextResetDate(time.Now())
	org := &models.Organization{
		ID:                     cfg.DevOrgID,
		Name:                   "Development",
		Plan:                   models.PlanCreator,
		AIGenerationsResetDate: &reset,
	}
	if err := s.Organizations.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("create dev organization: %w", err)
	}
	logger.Warn("using in-memory storage, data is lost on restart", "org_id", org.ID)
	return s, nil
}
