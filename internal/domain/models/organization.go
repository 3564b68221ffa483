package models

import (
	"strings"
	"time"
)

// Subscription plans. The plan decides the monthly base generation limit.
const (
	PlanExplorer = "explorer"
	PlanCreator  = "creator"
	PlanMaster   = "master"
)

// UnlimitedRemaining is reported as the remaining count for unlimited plans.
// It stays finite because it is serialized to clients.
const UnlimitedRemaining = 999999

// planLimits maps plans to monthly base limits. Unknown plans get 0, which means unlimited.
var planLimits = map[string]int{
	PlanExplorer: 3,
	PlanCreator:  100,
	PlanMaster:   500,
}

// PlanLimit returns the monthly base limit for a plan (0 = unlimited).
func PlanLimit(plan string) int {
	return planLimits[plan]
}

// IsKnownPlan reports whether plan is one of the subscription plans.
func IsKnownPlan(plan string) bool {
	_, ok := planLimits[plan]
	return ok
}

// Organization holds the quota fields of a tenant.
type Organization struct {
	ID                       string     `json:"id"`
	Name                     string     `json:"name"`
	Plan                     string     `json:"subscription_plan"`
	AIGenerationsUsed        int        `json:"ai_generations_used"`
	BonusAIGenerationCredits int        `json:"bonus_ai_generation_credits"`
	AIGenerationsResetDate   *time.Time `json:"ai_generations_reset_date"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// PlanName returns the display name of the plan ("Creator").
func (o *Organization) PlanName() string {
	if o.Plan == "" {
		return ""
	}
	return strings.ToUpper(o.Plan[:1]) + o.Plan[1:]
}

// BaseLimit is the plan's monthly limit; 0 means unlimited.
func (o *Organization) BaseLimit() int {
	return PlanLimit(o.Plan)
}

// TotalLimit is the base limit plus bonus credits.
func (o *Organization) TotalLimit() int {
	return o.BaseLimit() + o.BonusAIGenerationCredits
}

// IsUnlimited reports whether the plan has no generation cap.
func (o *Organization) IsUnlimited() bool {
	return o.BaseLimit() == 0
}

// Remaining returns how many generations are left this period.
func (o *Organization) Remaining() int {
	if o.IsUnlimited() {
		return UnlimitedRemaining
	}
	remaining := o.TotalLimit() - o.AIGenerationsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetDue reports whether the counters should be zeroed at now.
func (o *Organization) ResetDue(now time.Time) bool {
	return o.AIGenerationsResetDate == nil || !now.Before(*o.AIGenerationsResetDate)
}

// WithinLimit reports whether the current counters are inside the limit.
// Called after an increment, so it allows the counter to reach the limit exactly.
func (o *Organization) WithinLimit() bool {
	return o.AIGenerationsUsed <= o.TotalLimit() || o.IsUnlimited()
}

// Usage summarizes the quota for API responses.
func (o *Organization) Usage() *QuotaUsage {
	return &QuotaUsage{
		Plan:      o.Plan,
		Used:      o.AIGenerationsUsed,
		Limit:     o.TotalLimit(),
		Remaining: o.Remaining(),
		Bonus:     o.BonusAIGenerationCredits,
		ResetDate: o.AIGenerationsResetDate,
	}
}

// NextResetDate returns midnight UTC on the first day of the month after now.
// Jumps to day 28 and adds four days so December rolls into January.
func NextResetDate(now time.Time) time.Time {
	now = now.UTC()
	jump := time.Date(now.Year(), now.Month(), 28, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 4)
	return time.Date(jump.Year(), jump.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// QuotaUsage is the quota snapshot returned alongside generation results.
type QuotaUsage struct {
	Plan      string     `json:"plan"`
	Used      int        `json:"ai_generations_used"`
	Limit     int        `json:"ai_generations_limit"`
	Remaining int        `json:"ai_generations_remaining"`
	Bonus     int        `json:"bonus_ai_generation_credits"`
	ResetDate *time.Time `json:"ai_generations_reset_date,omitempty"`
}
