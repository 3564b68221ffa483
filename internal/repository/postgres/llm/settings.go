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

const modelSettingsColumns = `id, model_name, max_tokens, temperature, analysis_temperature, is_active, is_default,
	created_at, updated_at`

const lengthSettingsColumns = `id, length_name, description, target_tokens, organization_id, is_active,
	created_at, updated_at`

// PostgresModelSettingsRepository implements llmRepo.ModelSettingsRepository
type PostgresModelSettingsRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewModelSettingsRepository creates a new model settings repository
func NewModelSettingsRepository(config *postgres.RepositoryConfig) llmRepo.ModelSettingsRepository {
	return &PostgresModelSettingsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetDefault returns the active row flagged as default
func (r *PostgresModelSettingsRepository) GetDefault(ctx context.Context) (*models.ModelSettings, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE is_default AND is_active
		ORDER BY updated_at DESC LIMIT 1
	`, modelSettingsColumns, r.tables.ModelSettings)
	return r.getOne(ctx, "default", query)
}

// GetFirstActive returns the oldest active row
func (r *PostgresModelSettingsRepository) GetFirstActive(ctx context.Context) (*models.ModelSettings, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE is_active
		ORDER BY created_at, id LIMIT 1
	`, modelSettingsColumns, r.tables.ModelSettings)
	return r.getOne(ctx, "active", query)
}

// GetByID retrieves model settings by ID
func (r *PostgresModelSettingsRepository) GetByID(ctx context.Context, id string) (*models.ModelSettings, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, modelSettingsColumns, r.tables.ModelSettings)
	return r.getOne(ctx, id, query, id)
}

// List returns every model configuration
func (r *PostgresModelSettingsRepository) List(ctx context.Context) ([]models.ModelSettings, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY is_default DESC, model_name`, modelSettingsColumns, r.tables.ModelSettings)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list model settings: %w", err)
	}
	defer rows.Close()

	settings := []models.ModelSettings{}
	for rows.Next() {
		s, err := scanModelSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model settings: %w", err)
		}
		settings = append(settings, *s)
	}
	return settings, rows.Err()
}

// Create inserts a model configuration
func (r *PostgresModelSettingsRepository) Create(ctx context.Context, s *models.ModelSettings) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (model_name, max_tokens, temperature, analysis_temperature, is_active, is_default,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, r.tables.ModelSettings)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		s.ModelName,
		s.MaxTokens,
		s.Temperature,
		s.AnalysisTemperature,
		s.IsActive,
		s.IsDefault,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("another default model is already set: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create model settings: %w", err)
	}
	return nil
}

// Update rewrites a model configuration
func (r *PostgresModelSettingsRepository) Update(ctx context.Context, s *models.ModelSettings) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET model_name = $2, max_tokens = $3, temperature = $4, analysis_temperature = $5,
			is_active = $6, is_default = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.ModelSettings)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		s.ID,
		s.ModelName,
		s.MaxTokens,
		s.Temperature,
		s.AnalysisTemperature,
		s.IsActive,
		s.IsDefault,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("model settings %s: %w", s.ID, domain.ErrNotFound)
		}
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("another default model is already set: %w", domain.ErrConflict)
		}
		return fmt.Errorf("update model settings: %w", err)
	}
	return nil
}

// ClearDefaults unsets the default flag everywhere except exceptID
func (r *PostgresModelSettingsRepository) ClearDefaults(ctx context.Context, exceptID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_default = FALSE, updated_at = NOW()
		WHERE is_default AND id::text <> $1
	`, r.tables.ModelSettings)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, exceptID); err != nil {
		return fmt.Errorf("clear default model settings: %w", err)
	}
	return nil
}

// HasDefault reports whether any row is flagged default
func (r *PostgresModelSettingsRepository) HasDefault(ctx context.Context) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE is_default)`, r.tables.ModelSettings)

	var exists bool
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("check default model settings: %w", err)
	}
	return exists, nil
}

func (r *PostgresModelSettingsRepository) getOne(ctx context.Context, what, query string, args ...interface{}) (*models.ModelSettings, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	s, err := scanModelSettings(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("model settings %s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get model settings: %w", err)
	}
	return s, nil
}

func scanModelSettings(row pgx.Row) (*models.ModelSettings, error) {
	var s models.ModelSettings
	err := row.Scan(
		&s.ID,
		&s.ModelName,
		&s.MaxTokens,
		&s.Temperature,
		&s.AnalysisTemperature,
		&s.IsActive,
		&s.IsDefault,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// PostgresLengthSettingsRepository implements llmRepo.LengthSettingsRepository
type PostgresLengthSettingsRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewLengthSettingsRepository creates a new length settings repository
func NewLengthSettingsRepository(config *postgres.RepositoryConfig) llmRepo.LengthSettingsRepository {
	return &PostgresLengthSettingsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetActive returns the active bucket for the exact scope (nil = global)
func (r *PostgresLengthSettingsRepository) GetActive(ctx context.Context, lengthName string, orgID *string) (*models.LengthSettings, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE length_name = $1 AND organization_id IS NOT DISTINCT FROM $2::uuid AND is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`, lengthSettingsColumns, r.tables.LengthSettings)
	return r.getOne(ctx, lengthName, query, lengthName, orgID)
}

// GetByID retrieves a length bucket by ID
func (r *PostgresLengthSettingsRepository) GetByID(ctx context.Context, id string) (*models.LengthSettings, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, lengthSettingsColumns, r.tables.LengthSettings)
	return r.getOne(ctx, id, query, id)
}

// List returns global buckets plus the organization's overrides
func (r *PostgresLengthSettingsRepository) List(ctx context.Context, orgID *string) ([]models.LengthSettings, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE organization_id IS NULL OR organization_id = $1::uuid
		ORDER BY target_tokens, length_name, organization_id NULLS FIRST
	`, lengthSettingsColumns, r.tables.LengthSettings)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list length settings: %w", err)
	}
	defer rows.Close()

	settings := []models.LengthSettings{}
	for rows.Next() {
		s, err := scanLengthSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("scan length settings: %w", err)
		}
		settings = append(settings, *s)
	}
	return settings, rows.Err()
}

// Create inserts a length bucket
func (r *PostgresLengthSettingsRepository) Create(ctx context.Context, s *models.LengthSettings) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (length_name, description, target_tokens, organization_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, r.tables.LengthSettings)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		s.LengthName,
		s.Description,
		s.TargetTokens,
		s.OrganizationID,
		s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("length '%s' already exists for this scope", s.LengthName),
				ResourceType: "length_settings",
				ResourceID:   s.LengthName,
			}
		}
		return fmt.Errorf("create length settings: %w", err)
	}
	return nil
}

// Update rewrites a length bucket
func (r *PostgresLengthSettingsRepository) Update(ctx context.Context, s *models.LengthSettings) error {
	query := fmt.Sprintf(`
		UPDATE %s SET description = $2, target_tokens = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.LengthSettings)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, s.ID, s.Description, s.TargetTokens, s.IsActive).Scan(&s.UpdatedAt)
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("length settings %s: %w", s.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update length settings: %w", err)
	}
	return nil
}

func (r *PostgresLengthSettingsRepository) getOne(ctx context.Context, what, query string, args ...interface{}) (*models.LengthSettings, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	s, err := scanLengthSettings(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("length settings %s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get length settings: %w", err)
	}
	return s, nil
}

func scanLengthSettings(row pgx.Row) (*models.LengthSettings, error) {
	var s models.LengthSettings
	err := row.Scan(
		&s.ID,
		&s.LengthName,
		&s.Description,
		&s.TargetTokens,
		&s.OrganizationID,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
