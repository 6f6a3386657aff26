// Package services tracks the consultation services picked for one
// in-flight sale.
package services

import (
	"clinicpos/m/domain"
	"clinicpos/m/internal/money"
)

// Selector is not safe for concurrent use; a session owns exactly one.
type Selector struct {
	selections []domain.ServiceSelection
}

func NewSelector() *Selector {
	return &Selector{}
}

// Selections returns a copy in selection order.
func (s *Selector) Selections() []domain.ServiceSelection {
	out := make([]domain.ServiceSelection, len(s.selections))
	for i, sel := range s.selections {
		if sel.CustomPrice != nil {
			p := *sel.CustomPrice
			sel.CustomPrice = &p
		}
		out[i] = sel
	}
	return out
}

func (s *Selector) IsEmpty() bool {
	return len(s.selections) == 0
}

func (s *Selector) Reset() {
	s.selections = nil
}

func (s *Selector) index(serviceID int64) int {
	for i, sel := range s.selections {
		if sel.ServiceID == serviceID {
			return i
		}
	}
	return -1
}

// Toggle selects the service at quantity 1 and its base amount, or
// deselects it when already selected. It reports whether the service is
// selected afterwards.
func (s *Selector) Toggle(svc domain.ConsultationService) bool {
	if i := s.index(svc.ID); i >= 0 {
		s.selections = append(s.selections[:i], s.selections[i+1:]...)
		return false
	}
	price := svc.Amount.NonNegative()
	s.selections = append(s.selections, domain.ServiceSelection{
		ServiceID:   svc.ID,
		Name:        svc.Name,
		Amount:      svc.Amount,
		Quantity:    1,
		CustomPrice: &price,
	})
	return true
}

// UpdateQuantity sets the quantity of a selection. Zero or less deselects.
func (s *Selector) UpdateQuantity(serviceID, quantity int64) error {
	i := s.index(serviceID)
	if i < 0 {
		return domain.Rejectf(domain.ErrServiceNotFound, "service %d is not selected", serviceID)
	}
	if quantity <= 0 {
		s.selections = append(s.selections[:i], s.selections[i+1:]...)
		return nil
	}
	sel := s.selections[i]
	if _, ok := sel.UnitPrice().MulChecked(quantity); !ok {
		return domain.Rejectf(domain.ErrAmountTooLarge, "%s: %d × %s", sel.Name, quantity, sel.UnitPrice())
	}
	s.selections[i].Quantity = quantity
	return nil
}

// UpdatePrice overrides the unit price of a selection. Negative prices
// become 0.
func (s *Selector) UpdatePrice(serviceID int64, price money.Amount) error {
	i := s.index(serviceID)
	if i < 0 {
		return domain.Rejectf(domain.ErrServiceNotFound, "service %d is not selected", serviceID)
	}
	p := price.NonNegative()
	sel := s.selections[i]
	if _, ok := p.MulChecked(sel.Quantity); !ok {
		return domain.Rejectf(domain.ErrAmountTooLarge, "%s: %d × %s", sel.Name, sel.Quantity, p)
	}
	s.selections[i].CustomPrice = &p
	return nil
}

// EnsureDefaults pre-selects every default service, but only while
// nothing is selected. Callers invoke it when a session starts and after
// a reset, so a user who deselects everything is not overridden.
func (s *Selector) EnsureDefaults(catalog []domain.ConsultationService) {
	if !s.IsEmpty() {
		return
	}
	for _, svc := range catalog {
		if svc.IsDefault {
			s.Toggle(svc)
		}
	}
}
