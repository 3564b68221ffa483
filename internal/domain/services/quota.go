package services

import (
	"context"

	"textvault/internal/domain/models"
)

// QuotaLedger tracks per-organization AI generation counters.
type QuotaLedger interface {
	// Remaining returns max(0, total - used), or models.UnlimitedRemaining for unlimited plans.
	Remaining(ctx context.Context, orgID string) (int, error)

	// ResetIfDue zeroes used and bonus when the reset date has passed. Idempotent.
	ResetIfDue(ctx context.Context, orgID string) (bool, error)

	// Consume resets if due, then counts one generation. Returns whether the
	// organization is still within its limit after the increment.
	Consume(ctx context.Context, orgID string) (bool, error)

	Usage(ctx context.Context, orgID string) (*models.QuotaUsage, error)
	Organization(ctx context.Context, orgID string) (*models.Organization, error)

	AddBonusCredits(ctx context.Context, orgID string, credits int) (*models.Organization, error)
	SetUsed(ctx context.Context, orgID string, used int) (*models.Organization, error)
	ForceReset(ctx context.Context, orgID string) (*models.Organization, error)
}
