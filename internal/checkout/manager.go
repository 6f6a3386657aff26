package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"clinicpos/m/domain"
	"clinicpos/m/internal/cart"
)

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Manager keeps the open sessions. Sessions are never shared: every
// operation on one session runs under that session's lock, while
// different sessions proceed in parallel.
type Manager struct {
	catalog   cart.Catalog
	settings  Settings
	finalizer *Finalizer

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(catalog cart.Catalog, settings Settings, finalizer *Finalizer) *Manager {
	return &Manager{
		catalog:   catalog,
		settings:  settings,
		finalizer: finalizer,
		sessions:  make(map[string]*entry),
	}
}

// Create opens a session with the default services selected.
func (m *Manager) Create(ctx context.Context) (View, error) {
	defaults, err := m.settings.ConsultationServices(ctx)
	if err != nil {
		return View{}, fmt.Errorf("load consultation services: %w", err)
	}
	s := NewSession(uuid.NewString(), m.catalog)
	s.selector.EnsureDefaults(defaults)

	m.mu.Lock()
	m.sessions[s.ID] = &entry{session: s}
	m.mu.Unlock()
	return s.View(), nil
}

func (m *Manager) get(id string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, domain.Rejectf(domain.ErrSessionNotFound, "%s", id)
	}
	return e, nil
}

// With runs fn with exclusive access to the session.
func (m *Manager) With(id string, fn func(*Session) error) error {
	e, err := m.get(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Commit finalizes the session. The session stays open for the next sale.
func (m *Manager) Commit(ctx context.Context, id string) (*domain.Sale, error) {
	var sale *domain.Sale
	err := m.With(id, func(s *Session) error {
		var err error
		sale, err = m.finalizer.Commit(ctx, s)
		return err
	})
	return sale, err
}

// Cancel discards the session. No stock was touched, so nothing is
// rolled back.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return domain.Rejectf(domain.ErrSessionNotFound, "%s", id)
	}
	delete(m.sessions, id)
	return nil
}

// Len is the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
