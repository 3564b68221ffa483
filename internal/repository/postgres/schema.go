package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates every table and index if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Organizations + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			subscription_plan TEXT NOT NULL DEFAULT 'explorer',
			ai_generations_used INTEGER NOT NULL DEFAULT 0,
			bonus_ai_generation_credits INTEGER NOT NULL DEFAULT 0,
			ai_generations_reset_date TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			organization_id UUID NOT NULL REFERENCES ` + tables.Organizations + `(id) ON DELETE CASCADE,
			created_by TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			content_format TEXT NOT NULL DEFAULT 'markdown',
			plain_text TEXT NOT NULL DEFAULT '',
			category_id TEXT,
			tags JSONB NOT NULL DEFAULT '[]'::jsonb,
			status TEXT NOT NULL DEFAULT 'draft',
			version INTEGER NOT NULL DEFAULT 1 CHECK (version > 0),
			parent_id UUID REFERENCES ` + tables.Documents + `(id) ON DELETE SET NULL,
			is_latest BOOLEAN NOT NULL DEFAULT TRUE,
			slug TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.StyleConstraints + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			constraints JSONB NOT NULL DEFAULT '{}'::jsonb,
			organization_id UUID REFERENCES ` + tables.Organizations + `(id) ON DELETE CASCADE,
			created_by TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.StyleConstraintDocuments + ` (
			style_constraint_id UUID NOT NULL REFERENCES ` + tables.StyleConstraints + `(id) ON DELETE CASCADE,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			PRIMARY KEY (style_constraint_id, document_id)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.PromptTemplates + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			template_type TEXT NOT NULL,
			organization_id UUID REFERENCES ` + tables.Organizations + `(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.ModelSettings + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			model_name TEXT NOT NULL,
			max_tokens INTEGER NOT NULL DEFAULT 4000,
			temperature DOUBLE PRECISION NOT NULL DEFAULT 0.7,
			analysis_temperature DOUBLE PRECISION NOT NULL DEFAULT 0.7,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.LengthSettings + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			length_name TEXT NOT NULL,
			description TEXT NOT NULL,
			target_tokens INTEGER NOT NULL,
			organization_id UUID REFERENCES ` + tables.Organizations + `(id) ON DELETE CASCADE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	p := tablePrefix
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + p + `documents_org_status ON ` + tables.Documents + `(organization_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `documents_org_slug ON ` + tables.Documents + `(organization_id, slug)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `documents_category ON ` + tables.Documents + `(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `documents_updated_at ON ` + tables.Documents + `(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `documents_tags ON ` + tables.Documents + ` USING GIN (tags)`,
		// One head per chain, and chains are identified by slug.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `documents_latest_slug ON ` + tables.Documents + `(organization_id, slug) WHERE is_latest`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `style_constraint_documents_doc ON ` + tables.StyleConstraintDocuments + `(document_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `templates_org_type ON ` + tables.PromptTemplates + `(template_type, organization_id) WHERE organization_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `templates_global_type ON ` + tables.PromptTemplates + `(template_type) WHERE organization_id IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `lengths_org_name ON ` + tables.LengthSettings + `(length_name, organization_id) WHERE organization_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `lengths_global_name ON ` + tables.LengthSettings + `(length_name) WHERE organization_id IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `model_settings_single_default ON ` + tables.ModelSettings + `((is_default)) WHERE is_default`,
	}

	for _, stmt := range append(statements, indexes...) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run schema statement: %w", err)
		}
	}
	return nil
}

// DropTables drops every prefixed table.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) ([]string, error) {
	dropped := make([]string, 0, len(tables.All()))
	for _, table := range tables.All() {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return dropped, fmt.Errorf("drop %s: %w", table, err)
		}
		dropped = append(dropped, table)
	}
	return dropped, nil
}
