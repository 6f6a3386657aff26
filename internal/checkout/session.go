// Package checkout owns in-flight sale sessions and turns them into
// committed sales.
package checkout

import (
	"context"

	"clinicpos/m/domain"
	"clinicpos/m/internal/billing"
	"clinicpos/m/internal/cart"
	"clinicpos/m/internal/money"
	"clinicpos/m/internal/services"
)

type State string

const (
	StateEmpty     State = "empty"
	StatePopulated State = "populated"
	StateCommitted State = "committed"
)

// Session is one in-flight sale. It is not safe for concurrent use; the
// Manager serializes access per session.
type Session struct {
	ID string

	cart     *cart.Cart
	selector *services.Selector
	customer *domain.Customer
	discount money.Amount
	payment  domain.PaymentMethod

	committed bool
	lastSale  *domain.Sale
}

// NewSession returns an empty session reading stock from catalog.
func NewSession(id string, catalog cart.Catalog) *Session {
	return &Session{
		ID:       id,
		cart:     cart.New(catalog),
		selector: services.NewSelector(),
		payment:  domain.PaymentCash,
	}
}

// State is Committed right after a commit until the next edit, otherwise
// Empty or Populated depending on the lines and selections held.
func (s *Session) State() State {
	if s.committed {
		return StateCommitted
	}
	if s.cart.IsEmpty() && s.selector.IsEmpty() {
		return StateEmpty
	}
	return StatePopulated
}

func (s *Session) touch() {
	s.committed = false
}

func (s *Session) Lines() []domain.CartLine {
	return s.cart.Lines()
}

func (s *Session) Selections() []domain.ServiceSelection {
	return s.selector.Selections()
}

func (s *Session) Customer() (domain.Customer, bool) {
	if s.customer == nil {
		return domain.Customer{}, false
	}
	return *s.customer, true
}

func (s *Session) PaymentMethod() domain.PaymentMethod {
	return s.payment
}

// LastSale is the sale produced by the most recent commit, if any.
func (s *Session) LastSale() *domain.Sale {
	return s.lastSale
}

func (s *Session) Summary() billing.Summary {
	return billing.Summarize(s.cart.Lines(), s.selector.Selections(), s.discount)
}

func (s *Session) Available(ctx context.Context, medicineID int64) (cart.Availability, error) {
	return s.cart.Available(ctx, medicineID)
}

func (s *Session) AddLine(ctx context.Context, medicineID, quantity int64, saleType domain.SaleType) (domain.CartLine, error) {
	line, err := s.cart.AddLine(ctx, medicineID, quantity, saleType)
	if err == nil {
		s.touch()
	}
	return line, err
}

func (s *Session) UpdateLineQuantity(ctx context.Context, medicineID int64, saleType domain.SaleType, quantity int64) error {
	if err := s.cart.UpdateLineQuantity(ctx, medicineID, saleType, quantity); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Session) UpdateLinePrice(medicineID int64, saleType domain.SaleType, unitPrice money.Amount) error {
	if err := s.cart.UpdateLinePrice(medicineID, saleType, unitPrice); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Session) RemoveLine(medicineID int64, saleType ...domain.SaleType) error {
	if err := s.cart.RemoveLine(medicineID, saleType...); err != nil {
		return err
	}
	s.touch()
	return nil
}

// ToggleService reports whether the service is selected afterwards.
func (s *Session) ToggleService(svc domain.ConsultationService) bool {
	s.touch()
	return s.selector.Toggle(svc)
}

func (s *Session) UpdateServiceQuantity(serviceID, quantity int64) error {
	if err := s.selector.UpdateQuantity(serviceID, quantity); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Session) UpdateServicePrice(serviceID int64, price money.Amount) error {
	if err := s.selector.UpdatePrice(serviceID, price); err != nil {
		return err
	}
	s.touch()
	return nil
}

func (s *Session) SetCustomer(c domain.Customer) {
	s.customer = &c
	s.touch()
}

func (s *Session) ClearCustomer() {
	s.customer = nil
	s.touch()
}

// SetDiscount stores the requested discount as is; billing clamps it.
func (s *Session) SetDiscount(d money.Amount) {
	s.discount = d
	s.touch()
}

func (s *Session) SetPaymentMethod(pm domain.PaymentMethod) error {
	if _, err := domain.ParsePaymentMethod(string(pm)); err != nil {
		return err
	}
	s.payment = pm
	s.touch()
	return nil
}

// reset returns the session to its initial state with the default
// services selected.
func (s *Session) reset(defaults []domain.ConsultationService) {
	s.cart.Reset()
	s.selector.Reset()
	s.selector.EnsureDefaults(defaults)
	s.customer = nil
	s.discount = 0
	s.payment = domain.PaymentCash
}

// View is a read-only snapshot of a session for rendering.
type View struct {
	ID            string                    `json:"id"`
	State         State                     `json:"state"`
	Customer      *domain.Customer          `json:"customer,omitempty"`
	Lines         []domain.CartLine         `json:"lines"`
	Services      []domain.ServiceSelection `json:"services"`
	PaymentMethod domain.PaymentMethod      `json:"payment_method"`
	Billing       billing.Summary           `json:"billing"`
	LastSale      *domain.Sale              `json:"last_sale,omitempty"`
}

func (s *Session) View() View {
	v := View{
		ID:            s.ID,
		State:         s.State(),
		Lines:         s.Lines(),
		Services:      s.Selections(),
		PaymentMethod: s.payment,
		Billing:       s.Summary(),
		LastSale:      s.lastSale,
	}
	if c, ok := s.Customer(); ok {
		v.Customer = &c
	}
	return v
}
