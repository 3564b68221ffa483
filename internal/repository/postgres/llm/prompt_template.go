package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"textvault/internal/domain"
	models "textvault/internal/domain/models/llm"
	llmRepo "textvault/internal/domain/repositories/llm"
	"textvault/internal/repository/postgres"
)

const templateColumns = `id, template_type, organization_id, content, is_active, created_at, updated_at`

// PostgresPromptTemplateRepository implements llmRepo.PromptTemplateRepository
type PostgresPromptTemplateRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewPromptTemplateRepository creates a new prompt template repository
func NewPromptTemplateRepository(config *postgres.RepositoryConfig) llmRepo.PromptTemplateRepository {
	return &PostgresPromptTemplateRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetActive returns the active template for the exact scope (nil = global)
func (r *PostgresPromptTemplateRepository) GetActive(ctx context.Context, templateType models.TemplateType, orgID *string) (*models.PromptTemplate, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE template_type = $1 AND organization_id IS NOT DISTINCT FROM $2::uuid AND is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`, templateColumns, r.tables.PromptTemplates)
	return r.getOne(ctx, string(templateType), query, string(templateType), orgID)
}

// GetByID retrieves a template by ID
func (r *PostgresPromptTemplateRepository) GetByID(ctx context.Context, id string) (*models.PromptTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, templateColumns, r.tables.PromptTemplates)
	return r.getOne(ctx, id, query, id)
}

// List returns global templates plus the organization's overrides
func (r *PostgresPromptTemplateRepository) List(ctx context.Context, orgID *string) ([]models.PromptTemplate, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE organization_id IS NULL OR organization_id = $1::uuid
		ORDER BY template_type, organization_id NULLS FIRST
	`, templateColumns, r.tables.PromptTemplates)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list prompt templates: %w", err)
	}
	defer rows.Close()

	templates := []models.PromptTemplate{}
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt template: %w", err)
		}
		templates = append(templates, *tpl)
	}
	return templates, rows.Err()
}

// Create inserts a template override
func (r *PostgresPromptTemplateRepository) Create(ctx context.Context, tpl *models.PromptTemplate) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (template_type, organization_id, content, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, r.tables.PromptTemplates)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		string(tpl.TemplateType),
		tpl.OrganizationID,
		tpl.Content,
		tpl.IsActive,
	).Scan(&tpl.ID, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			existingID, _ := r.existingID(ctx, tpl.TemplateType, tpl.OrganizationID)
			return &domain.ConflictError{
				Message:      fmt.Sprintf("template '%s' already exists for this scope", tpl.TemplateType),
				ResourceType: "template",
				ResourceID:   existingID,
			}
		}
		return fmt.Errorf("create prompt template: %w", err)
	}
	return nil
}

// Update rewrites content and the active flag
func (r *PostgresPromptTemplateRepository) Update(ctx context.Context, tpl *models.PromptTemplate) error {
	query := fmt.Sprintf(`
		UPDATE %s SET content = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.PromptTemplates)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, tpl.ID, tpl.Content, tpl.IsActive).Scan(&tpl.UpdatedAt)
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("template %s: %w", tpl.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update prompt template: %w", err)
	}
	return nil
}

func (r *PostgresPromptTemplateRepository) existingID(ctx context.Context, templateType models.TemplateType, orgID *string) (string, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s WHERE template_type = $1 AND organization_id IS NOT DISTINCT FROM $2::uuid
	`, r.tables.PromptTemplates)

	var id string
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, string(templateType), orgID).Scan(&id)
	return id, err
}

func (r *PostgresPromptTemplateRepository) getOne(ctx context.Context, what, query string, args ...interface{}) (*models.PromptTemplate, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	tpl, err := scanTemplate(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("template %s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get prompt template: %w", err)
	}
	return tpl, nil
}

func scanTemplate(row pgx.Row) (*models.PromptTemplate, error) {
	var tpl models.PromptTemplate
	err := row.Scan(
		&tpl.ID,
		&tpl.TemplateType,
		&tpl.OrganizationID,
		&tpl.Content,
		&tpl.IsActive,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}
