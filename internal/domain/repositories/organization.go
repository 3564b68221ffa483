package repositories

import (
	"context"
	"time"

	"textvault/internal/domain/models"
)

// OrganizationRepository stores organizations and their AI generation counters.
// Counter mutations are single statements so concurrent callers never lose updates.
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)

	// ResetIfDue zeroes used and bonus and moves the reset date to next when
	// the stored reset date is unset or not after now. Returns whether it reset.
	ResetIfDue(ctx context.Context, id string, now, next time.Time) (bool, error)

	// IncrementUsed adds one to the used counter and returns the updated row.
	IncrementUsed(ctx context.Context, id string) (*models.Organization, error)

	AddBonusCredits(ctx context.Context, id string, credits int) (*models.Organization, error)
	SetUsed(ctx context.Context, id string, used int) (*models.Organization, error)
	SetResetDate(ctx context.Context, id string, resetDate time.Time) (*models.Organization, error)
	UpdatePlan(ctx context.Context, id string, plan string) (*models.Organization, error)
}
