package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinicpos/m/domain"
	"clinicpos/m/internal/store"
)

// UnitOfWork runs fn atomically.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(store.Tx) error) error
}

// Settings supplies the services pre-selected after a reset.
type Settings interface {
	ConsultationServices(ctx context.Context) ([]domain.ConsultationService, error)
}

// Finalizer commits sessions into sales.
type Finalizer struct {
	uow      UnitOfWork
	settings Settings
	now      func() time.Time
	newID    func() string
}

func NewFinalizer(uow UnitOfWork, settings Settings) *Finalizer {
	return &Finalizer{
		uow:      uow,
		settings: settings,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// demand is the tablets sold per medicine, in first-seen order.
type demand struct {
	order   []int64
	tablets map[int64]int64
}

func demandOf(lines []domain.CartLine) demand {
	d := demand{tablets: make(map[int64]int64)}
	for _, l := range lines {
		if _, ok := d.tablets[l.MedicineID]; !ok {
			d.order = append(d.order, l.MedicineID)
		}
		d.tablets[l.MedicineID] += l.TotalTablets
	}
	return d
}

// StripsAfterSale is the stored quantity once sold tablets are taken out
// of stock. A partly used strip still counts as one strip. It reports
// false when the sale exceeds stock or is negative.
func StripsAfterSale(m domain.Medicine, soldTablets int64) (int64, bool) {
	if soldTablets < 0 {
		return 0, false
	}
	tps := m.Divisor()
	remaining := m.TotalTablets() - soldTablets
	if remaining < 0 {
		return 0, false
	}
	strips := remaining / tps
	if remaining%tps != 0 {
		strips++
	}
	return strips, true
}

func (f *Finalizer) buildSale(s *Session) *domain.Sale {
	lines := s.cart.Lines()
	selections := s.selector.Selections()
	summary := s.Summary()

	sale := &domain.Sale{
		ID:            f.newID(),
		CustomerID:    s.customer.ID,
		CustomerName:  s.customer.Name,
		PatientID:     s.customer.PatientID,
		TotalAmount:   summary.Subtotal,
		Discount:      summary.Discount,
		FinalAmount:   summary.FinalAmount,
		PaymentMethod: s.payment,
		CreatedAt:     f.now().UTC(),
	}
	for _, l := range lines {
		sale.Items = append(sale.Items, domain.SaleItem{
			SaleID:       sale.ID,
			Position:     len(sale.Items),
			Kind:         domain.ItemMedicine,
			RefID:        l.MedicineID,
			Name:         l.Name,
			SaleType:     l.SaleType,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			TotalPrice:   l.TotalPrice,
			TotalTablets: l.TotalTablets,
			GSTPercent:   l.GSTPercent,
		})
	}
	for _, sel := range selections {
		sale.Items = append(sale.Items, domain.SaleItem{
			SaleID:     sale.ID,
			Position:   len(sale.Items),
			Kind:       domain.ItemService,
			RefID:      sel.ServiceID,
			Name:       sel.Name,
			Quantity:   sel.Quantity,
			UnitPrice:  sel.UnitPrice(),
			TotalPrice: sel.Total(),
		})
	}
	return sale
}

// Commit freezes the session into a sale, decrements stock and appends
// the sale in one unit of work, then resets the session. On any error
// the session and the stores are left unchanged.
func (f *Finalizer) Commit(ctx context.Context, s *Session) (*domain.Sale, error) {
	if s.customer == nil {
		return nil, domain.ErrMissingCustomer
	}
	if s.cart.IsEmpty() && s.selector.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	defaults, err := f.settings.ConsultationServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load consultation services: %w", err)
	}

	sale := f.buildSale(s)
	d := demandOf(s.cart.Lines())

	err = f.uow.WithinTx(ctx, func(tx store.Tx) error {
		for _, id := range d.order {
			if err := decrement(ctx, tx, id, d.tablets[id]); err != nil {
				return err
			}
		}
		if err := tx.InsertSale(ctx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reset(defaults)
	s.committed = true
	s.lastSale = sale
	return sale, nil
}

func decrement(ctx context.Context, tx store.Tx, medicineID, soldTablets int64) error {
	m, err := tx.Medicine(ctx, medicineID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Rejectf(domain.ErrConcurrentStockConflict, "medicine %d was removed", medicineID)
	}
	if err != nil {
		return fmt.Errorf("load medicine %d: %w", medicineID, err)
	}
	newQty, ok := StripsAfterSale(m, soldTablets)
	if !ok {
		return domain.Rejectf(domain.ErrConcurrentStockConflict,
			"%s: %d tablets sold, %d in stock", m.Name, soldTablets, m.TotalTablets())
	}
	err = tx.DecrementStock(ctx, medicineID, m.Quantity, newQty)
	if errors.Is(err, store.ErrStaleStock) {
		return domain.Rejectf(domain.ErrConcurrentStockConflict, "%s: stock changed during commit", m.Name)
	}
	if err != nil {
		return fmt.Errorf("decrement medicine %d: %w", medicineID, err)
	}
	return nil
}
