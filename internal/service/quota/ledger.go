package quota

import (
	"context"
	"log/slog"
	"time"

	"textvault/internal/domain"
	"textvault/internal/domain/models"
	"textvault/internal/domain/repositories"
	"textvault/internal/domain/services"
)

// Ledger implements services.QuotaLedger on top of the organization repository.
// Every counter change is a single repository call, so concurrent requests
// never lose an increment. The check in Remaining and the increment in Consume
// are not atomic together: two requests racing on the last generation can
// both pass the check and both be billed.
type Ledger struct {
	orgs   repositories.OrganizationRepository
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for reset decisions.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates a quota ledger.
func NewLedger(orgs repositories.OrganizationRepository, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		orgs:   orgs,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ services.QuotaLedger = (*Ledger)(nil)

// CreateOrganization registers an organization on plan with a fresh counter
// and its first reset date set.
func (l *Ledger) CreateOrganization(ctx context.Context, name, plan string) (*models.Organization, error) {
	if name == "" {
		return nil, domain.NewValidationError("organization name is required")
	}
	if !models.IsKnownPlan(plan) {
		return nil, domain.NewValidationError("unknown plan %q", plan)
	}
	reset := models.NextResetDate(l.now().UTC())
	org := &models.Organization{
		Name:                   name,
		Plan:                   plan,
		AIGenerationsResetDate: &reset,
	}
	if err := l.orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	l.logger.Info("organization created", "org_id", org.ID, "plan", plan)
	return org, nil
}

func (l *Ledger) Organization(ctx context.Context, orgID string) (*models.Organization, error) {
	return l.orgs.GetByID(ctx, orgID)
}

func (l *Ledger) Remaining(ctx context.Context, orgID string) (int, error) {
	org, err := l.orgs.GetByID(ctx, orgID)
	if err != nil {
		return 0, err
	}
	return org.Remaining(), nil
}

func (l *Ledger) ResetIfDue(ctx context.Context, orgID string) (bool, error) {
	now := l.now().UTC()
	next := models.NextResetDate(now)
	reset, err := l.orgs.ResetIfDue(ctx, orgID, now, next)
	if err != nil {
		return false, err
	}
	if reset {
		l.logger.Info("ai generation counters reset",
			"org_id", orgID,
			"next_reset", next.Format(time.DateOnly),
		)
	}
	return reset, nil
}

// Consume counts one generation. The caller has already produced the
// document, so an organization that ends up over its limit is still billed
// and false is returned.
func (l *Ledger) Consume(ctx context.Context, orgID string) (bool, error) {
	if _, err := l.ResetIfDue(ctx, orgID); err != nil {
		return false, err
	}
	org, err := l.orgs.IncrementUsed(ctx, orgID)
	if err != nil {
		return false, err
	}
	within := org.WithinLimit()
	if !within {
		l.logger.Warn("ai generation counted past limit",
			"org_id", orgID,
			"used", org.AIGenerationsUsed,
			"limit", org.TotalLimit(),
		)
	}
	return within, nil
}

func (l *Ledger) Usage(ctx context.Context, orgID string) (*models.QuotaUsage, error) {
	if _, err := l.ResetIfDue(ctx, orgID); err != nil {
		return nil, err
	}
	org, err := l.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return org.Usage(), nil
}

// AddBonusCredits grants extra generations for the current period.
func (l *Ledger) AddBonusCredits(ctx context.Context, orgID string, credits int) (*models.Organization, error) {
	if credits <= 0 {
		return nil, domain.NewValidationError("bonus credits must be positive, got %d", credits)
	}
	org, err := l.orgs.AddBonusCredits(ctx, orgID, credits)
	if err != nil {
		return nil, err
	}
	l.logger.Info("bonus credits added", "org_id", orgID, "credits", credits, "bonus", org.BonusAIGenerationCredits)
	return org, nil
}

func (l *Ledger) SetUsed(ctx context.Context, orgID string, used int) (*models.Organization, error) {
	if used < 0 {
		return nil, domain.NewValidationError("used credits cannot be negative, got %d", used)
	}
	org, err := l.orgs.SetUsed(ctx, orgID, used)
	if err != nil {
		return nil, err
	}
	l.logger.Info("used credits set", "org_id", orgID, "used", used)
	return org, nil
}

// ForceReset backdates the reset date and runs the regular reset, so bonus
// credits are cleared along with the counter.
func (l *Ledger) ForceReset(ctx context.Context, orgID string) (*models.Organization, error) {
	yesterday := l.now().UTC().AddDate(0, 0, -1)
	if _, err := l.orgs.SetResetDate(ctx, orgID, yesterday); err != nil {
		return nil, err
	}
	if _, err := l.ResetIfDue(ctx, orgID); err != nil {
		return nil, err
	}
	return l.orgs.GetByID(ctx, orgID)
}
