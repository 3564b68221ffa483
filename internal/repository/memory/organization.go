package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"textvault/internal/domain"
	"textvault/internal/domain/models"
	"textvault/internal/domain/repositories"
)

// OrganizationRepository implements repositories.OrganizationRepository
type OrganizationRepository struct {
	store *Store
}

// NewOrganizationRepository creates an organization repository on the store
func NewOrganizationRepository(store *Store) repositories.OrganizationRepository {
	return &OrganizationRepository{store: store}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.store.write(ctx, func() error {
		if org.ID == "" {
			org.ID = uuid.NewString()
		}
		if _, exists := r.store.organizations[org.ID]; exists {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("organization %s already exists", org.ID),
				ResourceType: "organization",
				ResourceID:   org.ID,
			}
		}
		now := r.store.tick()
		org.CreatedAt, org.UpdatedAt = now, now
		r.store.organizations[org.ID] = cloneOrganization(org)
		return nil
	})
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	var org *models.Organization
	r.store.read(func() {
		if o, ok := r.store.organizations[id]; ok {
			org = cloneOrganization(o)
		}
	})
	if org == nil {
		return nil, fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
	}
	return org, nil
}

func (r *OrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	orgs := []models.Organization{}
	r.store.read(func() {
		for _, o := range r.store.organizations {
			orgs = append(orgs, *cloneOrganization(o))
		}
	})
	sort.Slice(orgs, func(i, j int) bool {
		if orgs[i].Name != orgs[j].Name {
			return orgs[i].Name < orgs[j].Name
		}
		return orgs[i].ID < orgs[j].ID
	})
	return orgs, nil
}

func (r *OrganizationRepository) ResetIfDue(ctx context.Context, id string, now, next time.Time) (bool, error) {
	reset := false
	err := r.store.write(ctx, func() error {
		o, ok := r.store.organizations[id]
		if !ok {
			return fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
		}
		if !o.ResetDue(now) {
			return nil
		}
		o.AIGenerationsUsed = 0
		o.BonusAIGenerationCredits = 0
		o.AIGenerationsResetDate = &next
		o.UpdatedAt = r.store.tick()
		reset = true
		return nil
	})
	return reset, err
}

func (r *OrganizationRepository) IncrementUsed(ctx context.Context, id string) (*models.Organization, error) {
	return r.mutate(ctx, id, func(o *models.Organization) {
		o.AIGenerationsUsed++
	})
}

func (r *OrganizationRepository) AddBonusCredits(ctx context.Context, id string, credits int) (*models.Organization, error) {
	return r.mutate(ctx, id, func(o *models.Organization) {
		o.BonusAIGenerationCredits += credits
	})
}

func (r *OrganizationRepository) SetUsed(ctx context.Context, id string, used int) (*models.Organization, error) {
	return r.mutate(ctx, id, func(o *models.Organization) {
		o.AIGenerationsUsed = used
	})
}

func (r *OrganizationRepository) SetResetDate(ctx context.Context, id string, resetDate time.Time) (*models.Organization, error) {
	return r.mutate(ctx, id, func(o *models.Organization) {
		o.AIGenerationsResetDate = &resetDate
	})
}

func (r *OrganizationRepository) UpdatePlan(ctx context.Context, id string, plan string) (*models.Organization, error) {
	return r.mutate(ctx, id, func(o *models.Organization) {
		o.Plan = plan
	})
}

func (r *OrganizationRepository) mutate(ctx context.Context, id string, fn func(*models.Organization)) (*models.Organization, error) {
	var out *models.Organization
	err := r.store.write(ctx, func() error {
		o, ok := r.store.organizations[id]
		if !ok {
			return fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
		}
		fn(o)
		o.UpdatedAt = r.store.tick()
		out = cloneOrganization(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
