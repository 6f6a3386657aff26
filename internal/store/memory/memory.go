// Package memory is an in-process store. It backs the tests and the
// server when no database is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"clinicpos/m/domain"
	"clinicpos/m/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	nextID    map[string]int64
	medicines map[int64]domain.Medicine
	customers map[int64]domain.Customer
	services  []domain.ConsultationService
	users     []domain.User
	sales     []domain.Sale
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextID:    make(map[string]int64),
		medicines: make(map[int64]domain.Medicine),
		customers: make(map[int64]domain.Customer),
	}
}

// id hands out per-table sequences like an identity column. A caller
// supplied id is kept and advances the sequence past it.
func (s *Store) id(table string, requested int64) int64 {
	if requested > 0 {
		if requested > s.nextID[table] {
			s.nextID[table] = requested
		}
		return requested
	}
	s.nextID[table]++
	return s.nextID[table]
}

func copyMedicine(m domain.Medicine) domain.Medicine {
	if m.TotalSellingPrice != nil {
		p := *m.TotalSellingPrice
		m.TotalSellingPrice = &p
	}
	return m
}

func (s *Store) Medicine(ctx context.Context, id int64) (domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.medicines[id]
	if !ok {
		return domain.Medicine{}, store.ErrNotFound
	}
	return copyMedicine(m), nil
}

func contains(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func (s *Store) SearchMedicines(ctx context.Context, query string, limit int) ([]domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []domain.Medicine
	for _, m := range s.medicines {
		if contains(q, m.Name, m.Brand) {
			out = append(out, copyMedicine(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) LowStock(ctx context.Context) ([]domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Medicine
	for _, m := range s.medicines {
		if m.LowOnStock() {
			out = append(out, copyMedicine(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateMedicine(ctx context.Context, m *domain.Medicine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.medicines[m.ID]; ok && m.ID != 0 {
		return store.ErrDuplicate
	}
	m.ID = s.id("medicines", m.ID)
	s.medicines[m.ID] = copyMedicine(*m)
	return nil
}

func (s *Store) Customer(ctx context.Context, id int64) (domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) SearchCustomers(ctx context.Context, query string, limit int) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []domain.Customer
	for _, c := range s.customers {
		if contains(q, c.Name, c.PatientID, c.Phone) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.customers {
		if c.PatientID != "" && existing.PatientID == c.PatientID {
			return store.ErrDuplicate
		}
	}
	c.ID = s.id("customers", 0)
	s.customers[c.ID] = *c
	return nil
}

func (s *Store) ConsultationServices(ctx context.Context) ([]domain.ConsultationService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ConsultationService, len(s.services))
	copy(out, s.services)
	return out, nil
}

func (s *Store) ConsultationService(ctx context.Context, id int64) (domain.ConsultationService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, nil
		}
	}
	return domain.ConsultationService{}, store.ErrNotFound
}

func (s *Store) CreateConsultationService(ctx context.Context, svc *domain.ConsultationService) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc.ID = s.id("consultation_services", 0)
	s.services = append(s.services, *svc)
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	u.ID = s.id("users", 0)
	s.users = append(s.users, *u)
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Password = hash
			return nil
		}
	}
	return store.ErrNotFound
}

func copySale(sale domain.Sale) domain.Sale {
	sale.Items = append([]domain.SaleItem(nil), sale.Items...)
	return sale
}

// ListSales returns matching sales, newest first.
func (s *Store) ListSales(ctx context.Context, f store.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Sale
	for _, sale := range s.sales {
		if !f.From.IsZero() && sale.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !sale.CreatedAt.Before(f.To) {
			continue
		}
		out = append(out, copySale(sale))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// WithinTx holds the write lock for the whole unit of work, so commits
// are serialized. Writes are staged and applied only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &tx{s: s, stock: make(map[int64]int64)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for id, qty := range tx.stock {
		m := s.medicines[id]
		m.Quantity = qty
		s.medicines[id] = m
	}
	s.sales = append(s.sales, tx.sales...)
	return nil
}

type tx struct {
	s     *Store
	stock map[int64]int64
	sales []domain.Sale
}

func (t *tx) Medicine(ctx context.Context, id int64) (domain.Medicine, error) {
	m, ok := t.s.medicines[id]
	if !ok {
		return domain.Medicine{}, store.ErrNotFound
	}
	if qty, ok := t.stock[id]; ok {
		m.Quantity = qty
	}
	return copyMedicine(m), nil
}

func (t *tx) DecrementStock(ctx context.Context, id, expected, newQuantity int64) error {
	m, err := t.Medicine(ctx, id)
	if err != nil {
		return err
	}
	if m.Quantity != expected {
		return store.ErrStaleStock
	}
	t.stock[id] = newQuantity
	return nil
}

func (t *tx) InsertSale(ctx context.Context, sale *domain.Sale) error {
	for _, existing := range t.s.sales {
		if existing.ID == sale.ID {
			return store.ErrDuplicate
		}
	}
	t.sales = append(t.sales, copySale(*sale))
	return nil
}
