// Package billing totals the lines and service selections of a sale.
package billing

import (
	"clinicpos/m/domain"
	"clinicpos/m/internal/money"
)

type Summary struct {
	MedicinesTotal money.Amount `json:"medicines_total"`
	ServicesTotal  money.Amount `json:"services_total"`
	Subtotal       money.Amount `json:"subtotal"`
	Discount       money.Amount `json:"discount"`
	FinalAmount    money.Amount `json:"final_amount"`
}

// Summarize clamps discount to [0, subtotal] whatever the caller passes,
// so FinalAmount is never negative.
func Summarize(lines []domain.CartLine, selections []domain.ServiceSelection, discount money.Amount) Summary {
	var s Summary
	for _, l := range lines {
		s.MedicinesTotal += l.TotalPrice
	}
	for _, sel := range selections {
		s.ServicesTotal += sel.Total()
	}
	s.Subtotal = s.MedicinesTotal + s.ServicesTotal
	s.Discount = discount.Clamp(0, s.Subtotal.NonNegative())
	s.FinalAmount = (s.Subtotal - s.Discount).NonNegative()
	return s
}
