package docsystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"textvault/internal/domain"
	models "textvault/internal/domain/models/docsystem"
	docsysRepo "textvault/internal/domain/repositories/docsystem"
	"textvault/internal/repository/postgres"
)

const documentColumns = `id, organization_id, created_by, title, content, content_format, plain_text,
	category_id, tags, status, version, parent_id, is_latest, slug, created_at, updated_at`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a document row. Version chain fields are taken as given.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (organization_id, created_by, title, content, content_format, plain_text,
			category_id, tags, status, version, parent_id, is_latest, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		doc.OrganizationID,
		doc.CreatedBy,
		doc.Title,
		doc.Content,
		doc.ContentFormat,
		doc.PlainText,
		doc.CategoryID,
		tags,
		doc.Status,
		doc.Version,
		doc.ParentID,
		doc.IsLatest,
		doc.Slug,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document with slug '%s' already exists", doc.Slug),
				ResourceType: "document",
				ResourceID:   doc.Slug,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// Update rewrites the mutable fields of a document
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, content = $2, content_format = $3, plain_text = $4, category_id = $5,
			tags = $6::jsonb, status = $7, updated_at = NOW()
		WHERE id = $8 AND organization_id = $9
		RETURNING updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		doc.Title,
		doc.Content,
		doc.ContentFormat,
		doc.PlainText,
		doc.CategoryID,
		tags,
		doc.Status,
		doc.ID,
		doc.OrganizationID,
	).Scan(&doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID within an organization
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id, orgID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND organization_id = $2
	`, documentColumns, r.tables.Documents)
	return r.getOne(ctx, "document "+id, query, id, orgID)
}

// GetByIDForUpdate retrieves a document and locks its row
func (r *PostgresDocumentRepository) GetByIDForUpdate(ctx context.Context, id, orgID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE
	`, documentColumns, r.tables.Documents)
	return r.getOne(ctx, "document "+id, query, id, orgID)
}

// GetLatestBySlug retrieves the latest version of a chain
func (r *PostgresDocumentRepository) GetLatestBySlug(ctx context.Context, orgID, slug string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE organization_id = $1 AND slug = $2 AND is_latest
	`, documentColumns, r.tables.Documents)
	return r.getOne(ctx, "document '"+slug+"'", query, orgID, slug)
}

// GetBySlugAndVersion retrieves a specific version of a chain
func (r *PostgresDocumentRepository) GetBySlugAndVersion(ctx context.Context, orgID, slug string, version int) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE organization_id = $1 AND slug = $2 AND version = $3
		ORDER BY created_at DESC
		LIMIT 1
	`, documentColumns, r.tables.Documents)
	return r.getOne(ctx, fmt.Sprintf("document '%s' version %d", slug, version), query, orgID, slug, version)
}

// SlugTaken reports whether any row in the organization uses slug
func (r *PostgresDocumentRepository) SlugTaken(ctx context.Context, orgID, slug string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE organization_id = $1 AND slug = $2)
	`, r.tables.Documents)

	var taken bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, orgID, slug).Scan(&taken); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return taken, nil
}

// SetLatest flips is_latest on one row
func (r *PostgresDocumentRepository) SetLatest(ctx context.Context, id string, latest bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_latest = $2, updated_at = NOW() WHERE id = $1
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, latest)
	if err != nil {
		return fmt.Errorf("set latest flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns one page of documents and the total match count
func (r *PostgresDocumentRepository) List(ctx context.Context, filter *models.DocumentFilter) ([]models.Document, int, error) {
	where, args, err := buildDocumentWhere(filter)
	if err != nil {
		return nil, 0, err
	}

	executor := postgres.GetExecutor(ctx, r.pool)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, r.tables.Documents, where)
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return nil, 0, domain.NewValidationError("invalid document id in filter")
		}
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY updated_at DESC, id
	`, documentColumns, r.tables.Documents, where)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	documents := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents: %w", err)
	}

	return documents, total, nil
}

// UpdateStatus sets the status of every listed document in the organization
func (r *PostgresDocumentRepository) UpdateStatus(ctx context.Context, orgID string, ids []string, status models.Status) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $3, updated_at = NOW()
		WHERE organization_id = $1 AND id = ANY($2::uuid[])
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, orgID, ids, status)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return 0, domain.NewValidationError("invalid document id")
		}
		return 0, fmt.Errorf("bulk update status: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// UpdateCategory moves every listed document to categoryID (nil clears it)
func (r *PostgresDocumentRepository) UpdateCategory(ctx context.Context, orgID string, ids []string, categoryID *string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET category_id = $3, updated_at = NOW()
		WHERE organization_id = $1 AND id = ANY($2::uuid[])
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, orgID, ids, categoryID)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return 0, domain.NewValidationError("invalid document id")
		}
		return 0, fmt.Errorf("bulk update category: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// DeletePermanently removes rows; parent_id of later versions is set NULL by the foreign key
func (r *PostgresDocumentRepository) DeletePermanently(ctx context.Context, orgID string, ids []string) (int, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE organization_id = $1 AND id = ANY($2::uuid[])
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, orgID, ids)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return 0, domain.NewValidationError("invalid document id")
		}
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func (r *PostgresDocumentRepository) getOne(ctx context.Context, what, query string, args ...interface{}) (*models.Document, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// buildDocumentWhere turns a filter into a WHERE clause with positional args.
func buildDocumentWhere(filter *models.DocumentFilter) (string, []interface{}, error) {
	conditions := []string{"organization_id = $1"}
	args := []interface{}{filter.OrganizationID}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if len(filter.IDs) > 0 {
		add("id = ANY($%d::uuid[])", filter.IDs)
	}
	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	} else if filter.Uncategorized {
		conditions = append(conditions, "category_id IS NULL")
	}
	if len(filter.Tags) > 0 {
		encoded, err := encodeTags(filter.Tags)
		if err != nil {
			return "", nil, err
		}
		add("tags @> $%d::jsonb", encoded)
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	} else if !filter.IncludeDeleted {
		add("status <> $%d", string(models.StatusDeleted))
	}
	if filter.LatestOnly {
		conditions = append(conditions, "is_latest")
	}
	if filter.Search != "" {
		add("(title ILIKE $%[1]d OR plain_text ILIKE $%[1]d)", "%"+filter.Search+"%")
	}

	return strings.Join(conditions, " AND "), args, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(encoded), nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	var tags []byte
	err := row.Scan(
		&doc.ID,
		&doc.OrganizationID,
		&doc.CreatedBy,
		&doc.Title,
		&doc.Content,
		&doc.ContentFormat,
		&doc.PlainText,
		&doc.CategoryID,
		&tags,
		&doc.Status,
		&doc.Version,
		&doc.ParentID,
		&doc.IsLatest,
		&doc.Slug,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &doc.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &doc, nil
}
