package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"textvault/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Organizations            string
	Documents                string
	StyleConstraints         string
	StyleConstraintDocuments string
	PromptTemplates          string
	ModelSettings            string
	LengthSettings           string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Organizations:            prefix + "organizations",
		Documents:                prefix + "documents",
		StyleConstraints:         prefix + "style_constraints",
		StyleConstraintDocuments: prefix + "style_constraint_documents",
		PromptTemplates:          prefix + "ai_prompt_templates",
		ModelSettings:            prefix + "ai_model_settings",
		LengthSettings:           prefix + "document_length_settings",
	}
}

// All returns every table, children before parents, in drop order.
func (t *TableNames) All() []string {
	return []string{
		t.StyleConstraintDocuments,
		t.StyleConstraints,
		t.Documents,
		t.PromptTemplates,
		t.LengthSettings,
		t.ModelSettings,
		t.Organizations,
	}
}

// CreateConnectionPool creates a pgx pool.
//
// Port 6543 is a transaction-mode PgBouncer, which cannot hold prepared
// statements; those connections switch to QueryExecModeCacheDescribe so JSONB
// parameters still get type information. An explicit default_query_exec_mode in
// the URL wins over the auto-detection.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there is none.
// Repositories call it on every query so they join ExecTx transactions automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
