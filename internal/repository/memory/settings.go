package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"textvault/internal/domain"
	models "textvault/internal/domain/models/llm"
	llmRepo "textvault/internal/domain/repositories/llm"
)

// PromptTemplateRepository implements llmRepo.PromptTemplateRepository
type PromptTemplateRepository struct {
	store *Store
}

// NewPromptTemplateRepository creates a prompt template repository on the store
func NewPromptTemplateRepository(store *Store) llmRepo.PromptTemplateRepository {
	return &PromptTemplateRepository{store: store}
}

func (r *PromptTemplateRepository) GetActive(ctx context.Context, templateType models.TemplateType, orgID *string) (*models.PromptTemplate, error) {
	var out *models.PromptTemplate
	r.store.read(func() {
		for _, t := range r.store.templates {
			if t.TemplateType == templateType && t.IsActive && sameScope(t.OrganizationID, orgID) {
				out = cloneTemplate(t)
				return
			}
		}
	})
	if out == nil {
		return nil, fmt.Errorf("template %s: %w", templateType, domain.ErrNotFound)
	}
	return out, nil
}

func (r *PromptTemplateRepository) GetByID(ctx context.Context, id string) (*models.PromptTemplate, error) {
	var out *models.PromptTemplate
	r.store.read(func() {
		if t, ok := r.store.templates[id]; ok {
			out = cloneTemplate(t)
		}
	})
	if out == nil {
		return nil, fmt.Errorf("template %s: %w", id, domain.ErrNotFound)
	}
	return out, nil
}

func (r *PromptTemplateRepository) List(ctx context.Context, orgID *string) ([]models.PromptTemplate, error) {
	out := []models.PromptTemplate{}
	r.store.read(func() {
		for _, t := range r.store.templates {
			if t.OrganizationID == nil || sameScope(t.OrganizationID, orgID) {
				out = append(out, *cloneTemplate(t))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].TemplateType != out[j].TemplateType {
			return out[i].TemplateType < out[j].TemplateType
		}
		return out[i].OrganizationID == nil && out[j].OrganizationID != nil
	})
	return out, nil
}

func (r *PromptTemplateRepository) Create(ctx context.Context, tpl *models.PromptTemplate) error {
	return r.store.write(ctx, func() error {
		for _, t := range r.store.templates {
			if t.TemplateType == tpl.TemplateType && sameScope(t.OrganizationID, tpl.OrganizationID) {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("template '%s' already exists for this scope", tpl.TemplateType),
					ResourceType: "template",
					ResourceID:   t.ID,
				}
			}
		}
		tpl.ID = uuid.NewString()
		now := r.store.tick()
		tpl.CreatedAt, tpl.UpdatedAt = now, now
		r.store.templates[tpl.ID] = cloneTemplate(tpl)
		return nil
	})
}

func (r *PromptTemplateRepository) Update(ctx context.Context, tpl *models.PromptTemplate) error {
	return r.store.write(ctx, func() error {
		t, ok := r.store.templates[tpl.ID]
		if !ok {
			return fmt.Errorf("template %s: %w", tpl.ID, domain.ErrNotFound)
		}
		t.Content = tpl.Content
		t.IsActive = tpl.IsActive
		t.UpdatedAt = r.store.tick()
		tpl.UpdatedAt = t.UpdatedAt
		return nil
	})
}

// ModelSettingsRepository implements llmRepo.ModelSettingsRepository
type ModelSettingsRepository struct {
	store *Store
}

// NewModelSettingsRepository creates a model settings repository on the store
func NewModelSettingsRepository(store *Store) llmRepo.ModelSettingsRepository {
	return &ModelSettingsRepository{store: store}
}

func (r *ModelSettingsRepository) GetDefault(ctx context.Context) (*models.ModelSettings, error) {
	return r.find("default", func(m *models.ModelSettings) bool { return m.IsDefault && m.IsActive })
}

func (r *ModelSettingsRepository) GetFirstActive(ctx context.Context) (*models.ModelSettings, error) {
	return r.find("active", func(m *models.ModelSettings) bool { return m.IsActive })
}

func (r *ModelSettingsRepository) GetByID(ctx context.Context, id string) (*models.ModelSettings, error) {
	return r.find(id, func(m *models.ModelSettings) bool { return m.ID == id })
}

func (r *ModelSettingsRepository) List(ctx context.Context) ([]models.ModelSettings, error) {
	out := []models.ModelSettings{}
	r.store.read(func() {
		for _, m := range r.store.modelSettings {
			out = append(out, *cloneModelSettings(m))
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ModelName < out[j].ModelName
	})
	return out, nil
}

func (r *ModelSettingsRepository) Create(ctx context.Context, s *models.ModelSettings) error {
	return r.store.write(ctx, func() error {
		if s.IsDefault && r.otherDefaultLocked("") {
			return fmt.Errorf("another default model is already set: %w", domain.ErrConflict)
		}
		s.ID = uuid.NewString()
		now := r.store.tick()
		s.CreatedAt, s.UpdatedAt = now, now
		r.store.modelSettings[s.ID] = cloneModelSettings(s)
		return nil
	})
}

func (r *ModelSettingsRepository) Update(ctx context.Context, s *models.ModelSettings) error {
	return r.store.write(ctx, func() error {
		stored, ok := r.store.modelSettings[s.ID]
		if !ok {
			return fmt.Errorf("model settings %s: %w", s.ID, domain.ErrNotFound)
		}
		if s.IsDefault && r.otherDefaultLocked(s.ID) {
			return fmt.Errorf("another default model is already set: %w", domain.ErrConflict)
		}
		created := stored.CreatedAt
		*stored = *s
		stored.CreatedAt = created
		stored.UpdatedAt = r.store.tick()
		s.CreatedAt, s.UpdatedAt = created, stored.UpdatedAt
		return nil
	})
}

func (r *ModelSettingsRepository) ClearDefaults(ctx context.Context, exceptID string) error {
	return r.store.write(ctx, func() error {
		for id, m := range r.store.modelSettings {
			if id != exceptID && m.IsDefault {
				m.IsDefault = false
				m.UpdatedAt = r.store.tick()
			}
		}
		return nil
	})
}

func (r *ModelSettingsRepository) HasDefault(ctx context.Context) (bool, error) {
	found := false
	r.store.read(func() { found = r.otherDefaultLocked("") })
	return found, nil
}

func (r *ModelSettingsRepository) otherDefaultLocked(exceptID string) bool {
	for id, m := range r.store.modelSettings {
		if id != exceptID && m.IsDefault {
			return true
		}
	}
	return false
}

// find returns the oldest row matching pred.
func (r *ModelSettingsRepository) find(what string, pred func(*models.ModelSettings) bool) (*models.ModelSettings, error) {
	var out *models.ModelSettings
	r.store.read(func() {
		for _, m := range r.store.modelSettings {
			if pred(m) && (out == nil || m.CreatedAt.Before(out.CreatedAt)) {
				out = m
			}
		}
		if out != nil {
			out = cloneModelSettings(out)
		}
	})
	if out == nil {
		return nil, fmt.Errorf("model settings %s: %w", what, domain.ErrNotFound)
	}
	return out, nil
}

// LengthSettingsRepository implements llmRepo.LengthSettingsRepository
type LengthSettingsRepository struct {
	store *Store
}

// NewLengthSettingsRepository creates a length settings repository on the store
func NewLengthSettingsRepository(store *Store) llmRepo.LengthSettingsRepository {
	return &LengthSettingsRepository{store: store}
}

func (r *LengthSettingsRepository) GetActive(ctx context.Context, lengthName string, orgID *string) (*models.LengthSettings, error) {
	var out *models.LengthSettings
	r.store.read(func() {
		for _, l := range r.store.lengthSettings {
			if l.LengthName == lengthName && l.IsActive && sameScope(l.OrganizationID, orgID) {
				out = cloneLengthSettings(l)
				return
			}
		}
	})
	if out == nil {
		return nil, fmt.Errorf("length settings %s: %w", lengthName, domain.ErrNotFound)
	}
	return out, nil
}

func (r *LengthSettingsRepository) GetByID(ctx context.Context, id string) (*models.LengthSettings, error) {
	var out *models.LengthSettings
	r.store.read(func() {
		if l, ok := r.store.lengthSettings[id]; ok {
			out = cloneLengthSettings(l)
		}
	})
	if out == nil {
		return nil, fmt.Errorf("length settings %s: %w", id, domain.ErrNotFound)
	}
	return out, nil
}

func (r *LengthSettingsRepository) List(ctx context.Context, orgID *string) ([]models.LengthSettings, error) {
	out := []models.LengthSettings{}
	r.store.read(func() {
		for _, l := range r.store.lengthSettings {
			if l.OrganizationID == nil || sameScope(l.OrganizationID, orgID) {
				out = append(out, *cloneLengthSettings(l))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].TargetTokens != out[j].TargetTokens {
			return out[i].TargetTokens < out[j].TargetTokens
		}
		if out[i].LengthName != out[j].LengthName {
			return out[i].LengthName < out[j].LengthName
		}
		return out[i].OrganizationID == nil && out[j].OrganizationID != nil
	})
	return out, nil
}

func (r *LengthSettingsRepository) Create(ctx context.Context, s *models.LengthSettings) error {
	return r.store.write(ctx, func() error {
		for _, l := range r.store.lengthSettings {
			if l.LengthName == s.LengthName && sameScope(l.OrganizationID, s.OrganizationID) {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("length '%s' already exists for this scope", s.LengthName),
					ResourceType: "length_settings",
					ResourceID:   l.ID,
				}
			}
		}
		s.ID = uuid.NewString()
		now := r.store.tick()
		s.CreatedAt, s.UpdatedAt = now, now
		r.store.lengthSettings[s.ID] = cloneLengthSettings(s)
		return nil
	})
}

func (r *LengthSettingsRepository) Update(ctx context.Context, s *models.LengthSettings) error {
	return r.store.write(ctx, func() error {
		l, ok := r.store.lengthSettings[s.ID]
		if !ok {
			return fmt.Errorf("length settings %s: %w", s.ID, domain.ErrNotFound)
		}
		l.Description = s.Description
		l.TargetTokens = s.TargetTokens
		l.IsActive = s.IsActive
		l.UpdatedAt = r.store.tick()
		s.UpdatedAt = l.UpdatedAt
		return nil
	})
}
