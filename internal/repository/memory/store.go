// Package memory provides in-process repository implementations backed by maps.
// They serve local development without a database and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"textvault/internal/domain/models"
	"textvault/internal/domain/models/docsystem"
	"textvault/internal/domain/models/llm"
	"textvault/internal/domain/repositories"
)

// Store holds every table. One Store is shared by all memory repositories.
type Store struct {
	// txMu serializes transactions against each other and against
	// writes made outside a transaction.
	txMu sync.Mutex
	mu   sync.RWMutex

	organizations  map[string]*models.Organization
	documents      map[string]*docsystem.Document
	styles         map[string]*llm.StyleConstraint
	templates      map[string]*llm.PromptTemplate
	modelSettings  map[string]*llm.ModelSettings
	lengthSettings map[string]*llm.LengthSettings

	lastTick time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		organizations:  map[string]*models.Organization{},
		documents:      map[string]*docsystem.Document{},
		styles:         map[string]*llm.StyleConstraint{},
		templates:      map[string]*llm.PromptTemplate{},
		modelSettings:  map[string]*llm.ModelSettings{},
		lengthSettings: map[string]*llm.LengthSettings{},
	}
}

// tick returns a strictly increasing timestamp so ordering by time is total.
// Caller must hold mu.
func (s *Store) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastTick) {
		now = s.lastTick.Add(time.Microsecond)
	}
	s.lastTick = now
	return now
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write runs fn under the data lock, and under the transaction lock when the
// caller is not already inside ExecTx.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// TransactionManager runs callbacks against a snapshot that is restored on error.
type TransactionManager struct {
	store *Store
}

// NewTransactionManager creates a transaction manager for the store
func NewTransactionManager(store *Store) repositories.TransactionManager {
	return &TransactionManager{store: store}
}

// ExecTx runs fn atomically. A nested call joins the outer transaction.
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s := tm.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := s.snapshot()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	organizations  map[string]*models.Organization
	documents      map[string]*docsystem.Document
	styles         map[string]*llm.StyleConstraint
	templates      map[string]*llm.PromptTemplate
	modelSettings  map[string]*llm.ModelSettings
	lengthSettings map[string]*llm.LengthSettings
}

func (s *Store) snapshot() *snapshot {
	return &snapshot{
		organizations:  copyMap(s.organizations, cloneOrganization),
		documents:      copyMap(s.documents, cloneDocument),
		styles:         copyMap(s.styles, cloneStyle),
		templates:      copyMap(s.templates, cloneTemplate),
		modelSettings:  copyMap(s.modelSettings, cloneModelSettings),
		lengthSettings: copyMap(s.lengthSettings, cloneLengthSettings),
	}
}

func (s *Store) restore(snap *snapshot) {
	s.organizations = snap.organizations
	s.documents = snap.documents
	s.styles = snap.styles
	s.templates = snap.templates
	s.modelSettings = snap.modelSettings
	s.lengthSettings = snap.lengthSettings
}

func copyMap[T any](m map[string]*T, clone func(*T) *T) map[string]*T {
	out := make(map[string]*T, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

func cloneOrganization(o *models.Organization) *models.Organization {
	c := *o
	c.AIGenerationsResetDate = cloneTime(o.AIGenerationsResetDate)
	return &c
}

func cloneDocument(d *docsystem.Document) *docsystem.Document {
	c := *d
	c.CategoryID = cloneString(d.CategoryID)
	c.ParentID = cloneString(d.ParentID)
	c.Tags = append([]string{}, d.Tags...)
	return &c
}

func cloneStyle(sc *llm.StyleConstraint) *llm.StyleConstraint {
	c := *sc
	c.OrganizationID = cloneString(sc.OrganizationID)
	c.ReferenceDocumentIDs = append([]string{}, sc.ReferenceDocumentIDs...)
	return &c
}

func cloneTemplate(t *llm.PromptTemplate) *llm.PromptTemplate {
	c := *t
	c.OrganizationID = cloneString(t.OrganizationID)
	return &c
}

func cloneModelSettings(m *llm.ModelSettings) *llm.ModelSettings {
	c := *m
	return &c
}

func cloneLengthSettings(l *llm.LengthSettings) *llm.LengthSettings {
	c := *l
	c.OrganizationID = cloneString(l.OrganizationID)
	return &c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
