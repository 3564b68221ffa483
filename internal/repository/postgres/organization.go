package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"textvault/internal/domain"
	"textvault/internal/domain/models"
	"textvault/internal/domain/repositories"
)

const organizationColumns = `id, name, subscription_plan, ai_generations_used, bonus_ai_generation_credits,
	ai_generations_reset_date, created_at, updated_at`

// PostgresOrganizationRepository implements repositories.OrganizationRepository
type PostgresOrganizationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(config *RepositoryConfig) repositories.OrganizationRepository {
	return &PostgresOrganizationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts an organization. An empty ID lets the database assign one.
func (r *PostgresOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, subscription_plan, ai_generations_used, bonus_ai_generation_credits,
			ai_generations_reset_date, created_at, updated_at)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, r.tables.Organizations)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		org.ID,
		org.Name,
		org.Plan,
		org.AIGenerationsUsed,
		org.BonusAIGenerationCredits,
		org.AIGenerationsResetDate,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("organization %s already exists", org.ID),
				ResourceType: "organization",
				ResourceID:   org.ID,
			}
		}
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

// GetByID retrieves an organization by ID
func (r *PostgresOrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, organizationColumns, r.tables.Organizations)
	return r.queryOne(ctx, id, query, id)
}

// List returns every organization ordered by name
func (r *PostgresOrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY name, id`, organizationColumns, r.tables.Organizations)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []models.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

// ResetIfDue zeroes the counters in one conditional statement, so two callers
// racing on the boundary reset at most once.
func (r *PostgresOrganizationRepository) ResetIfDue(ctx context.Context, id string, now, next time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET ai_generations_used = 0,
			bonus_ai_generation_credits = 0,
			ai_generations_reset_date = $2,
			updated_at = NOW()
		WHERE id = $1 AND (ai_generations_reset_date IS NULL OR ai_generations_reset_date <= $3)
	`, r.tables.Organizations)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, next, now)
	if err != nil {
		if IsPgInvalidTextError(err) {
			return false, fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
		}
		return false, fmt.Errorf("reset organization quota: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementUsed runs on a savepoint so a failure leaves the caller's transaction usable.
func (r *PostgresOrganizationRepository) IncrementUsed(ctx context.Context, id string) (*models.Organization, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET ai_generations_used = ai_generations_used + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Organizations, organizationColumns)

	var org *models.Organization
	err := withSavepoint(ctx, r.pool, func(db repositories.DBTX) error {
		var scanErr error
		org, scanErr = scanOrganization(db.QueryRow(ctx, query, id))
		return scanErr
	})
	if err != nil {
		return nil, r.wrapRowError(id, "increment generations used", err)
	}
	return org, nil
}

// AddBonusCredits adds credits to the bonus pool
func (r *PostgresOrganizationRepository) AddBonusCredits(ctx context.Context, id string, credits int) (*models.Organization, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET bonus_ai_generation_credits = bonus_ai_generation_credits + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Organizations, organizationColumns)
	return r.queryOne(ctx, id, query, id, credits)
}

// SetUsed overwrites the used counter
func (r *PostgresOrganizationRepository) SetUsed(ctx context.Context, id string, used int) (*models.Organization, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET ai_generations_used = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Organizations, organizationColumns)
	return r.queryOne(ctx, id, query, id, used)
}

// SetResetDate overwrites the next reset date
func (r *PostgresOrganizationRepository) SetResetDate(ctx context.Context, id string, resetDate time.Time) (*models.Organization, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET ai_generations_reset_date = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Organizations, organizationColumns)
	return r.queryOne(ctx, id, query, id, resetDate)
}

// UpdatePlan changes the subscription plan
func (r *PostgresOrganizationRepository) UpdatePlan(ctx context.Context, id string, plan string) (*models.Organization, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET subscription_plan = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Organizations, organizationColumns)
	return r.queryOne(ctx, id, query, id, plan)
}

func (r *PostgresOrganizationRepository) queryOne(ctx context.Context, id, query string, args ...interface{}) (*models.Organization, error) {
	executor := GetExecutor(ctx, r.pool)
	org, err := scanOrganization(executor.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, r.wrapRowError(id, "query organization", err)
	}
	return org, nil
}

func (r *PostgresOrganizationRepository) wrapRowError(id, op string, err error) error {
	if IsPgNoRowsError(err) || IsPgInvalidTextError(err) {
		return fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Plan,
		&org.AIGenerationsUsed,
		&org.BonusAIGenerationCredits,
		&org.AIGenerationsResetDate,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &org, nil
}
