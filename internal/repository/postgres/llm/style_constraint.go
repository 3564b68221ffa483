package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"textvault/internal/domain"
	models "textvault/internal/domain/models/llm"
	"textvault/internal/domain/repositories"
	llmRepo "textvault/internal/domain/repositories/llm"
	"textvault/internal/repository/postgres"
)

// PostgresStyleConstraintRepository implements llmRepo.StyleConstraintRepository
type PostgresStyleConstraintRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewStyleConstraintRepository creates a new style constraint repository
func NewStyleConstraintRepository(config *postgres.RepositoryConfig) llmRepo.StyleConstraintRepository {
	return &PostgresStyleConstraintRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// selectColumns aggregates reference ids so one row carries the whole constraint.
func (r *PostgresStyleConstraintRepository) selectColumns() string {
	return fmt.Sprintf(`sc.id, sc.name, sc.description, sc.constraints, sc.organization_id, sc.created_by,
		sc.is_active, sc.created_at, sc.updated_at,
		COALESCE((SELECT array_agg(d.document_id::text ORDER BY d.document_id)
			FROM %s d WHERE d.style_constraint_id = sc.id), '{}')`, r.tables.StyleConstraintDocuments)
}

// Create inserts the constraint and its reference links in one transaction
func (r *PostgresStyleConstraintRepository) Create(ctx context.Context, sc *models.StyleConstraint) error {
	payload, err := json.Marshal(sc.Constraints)
	if err != nil {
		return fmt.Errorf("encode style payload: %w", err)
	}

	if repositories.GetTx(ctx) == nil {
		dbTx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = dbTx.Rollback(ctx) }()
		if err := r.Create(repositories.SetTx(ctx, dbTx), sc); err != nil {
			return err
		}
		if err := dbTx.Commit(ctx); err != nil {
			return fmt.Errorf("commit style constraint: %w", err)
		}
		return nil
	}

	tx := postgres.GetExecutor(ctx, r.pool)
	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, constraints, organization_id, created_by, is_active, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, r.tables.StyleConstraints)
	err = tx.QueryRow(ctx, query,
		sc.Name,
		sc.Description,
		string(payload),
		sc.OrganizationID,
		sc.CreatedBy,
		sc.IsActive,
	).Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create style constraint: %w", err)
	}

	if len(sc.ReferenceDocumentIDs) == 0 {
		return nil
	}

	linkQuery := fmt.Sprintf(`
		INSERT INTO %s (style_constraint_id, document_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, r.tables.StyleConstraintDocuments)
	if _, err := tx.Exec(ctx, linkQuery, sc.ID, sc.ReferenceDocumentIDs); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewValidationError("style constraint references an unknown document")
		}
		return fmt.Errorf("link style constraint documents: %w", err)
	}
	return nil
}

// GetByID retrieves an active or inactive constraint visible to the organization
func (r *PostgresStyleConstraintRepository) GetByID(ctx context.Context, id, orgID string) (*models.StyleConstraint, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s sc
		WHERE sc.id = $1 AND (sc.organization_id = $2 OR sc.organization_id IS NULL)
	`, r.selectColumns(), r.tables.StyleConstraints)

	executor := postgres.GetExecutor(ctx, r.pool)
	sc, err := scanStyleConstraint(executor.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("style constraint %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get style constraint: %w", err)
	}
	return sc, nil
}

// FindByExactReferenceSet matches constraints whose link set has the same size
// as docIDs and contains nothing outside it.
func (r *PostgresStyleConstraintRepository) FindByExactReferenceSet(ctx context.Context, orgID string, docIDs []string) (*models.StyleConstraint, error) {
	unique := dedupe(docIDs)
	if len(unique) == 0 {
		return nil, fmt.Errorf("style constraint for empty reference set: %w", domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s sc
		WHERE sc.is_active
		  AND (sc.organization_id = $1 OR sc.organization_id IS NULL)
		  AND sc.id IN (
			SELECT d.style_constraint_id FROM %s d
			GROUP BY d.style_constraint_id
			HAVING COUNT(*) = $3
			   AND bool_and(d.document_id = ANY($2::uuid[]))
		  )
		ORDER BY sc.created_at DESC
		LIMIT 1
	`, r.selectColumns(), r.tables.StyleConstraints, r.tables.StyleConstraintDocuments)

	executor := postgres.GetExecutor(ctx, r.pool)
	sc, err := scanStyleConstraint(executor.QueryRow(ctx, query, orgID, unique, len(unique)))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("style constraint for reference set: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find style constraint: %w", err)
	}
	return sc, nil
}

// List returns constraints visible to the organization, newest first
func (r *PostgresStyleConstraintRepository) List(ctx context.Context, orgID string, includeInactive bool) ([]models.StyleConstraint, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s sc
		WHERE (sc.organization_id = $1 OR sc.organization_id IS NULL)
		  AND (sc.is_active OR $2)
		ORDER BY sc.created_at DESC
	`, r.selectColumns(), r.tables.StyleConstraints)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, orgID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list style constraints: %w", err)
	}
	defer rows.Close()

	constraints := []models.StyleConstraint{}
	for rows.Next() {
		sc, err := scanStyleConstraint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan style constraint: %w", err)
		}
		constraints = append(constraints, *sc)
	}
	return constraints, rows.Err()
}

// SetActive toggles a constraint owned by the organization
func (r *PostgresStyleConstraintRepository) SetActive(ctx context.Context, id, orgID string, active bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_active = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
	`, r.tables.StyleConstraints)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, orgID, active)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("style constraint %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("update style constraint: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("style constraint %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanStyleConstraint(row pgx.Row) (*models.StyleConstraint, error) {
	var sc models.StyleConstraint
	var payload []byte
	err := row.Scan(
		&sc.ID,
		&sc.Name,
		&sc.Description,
		&payload,
		&sc.OrganizationID,
		&sc.CreatedBy,
		&sc.IsActive,
		&sc.CreatedAt,
		&sc.UpdatedAt,
		&sc.ReferenceDocumentIDs,
	)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &sc.Constraints); err != nil {
			return nil, fmt.Errorf("decode style payload: %w", err)
		}
	}
	return &sc, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
