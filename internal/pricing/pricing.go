// Package pricing derives per-unit prices and GST breakdowns from catalog
// fields.
package pricing

import (
	"github.com/shopspring/decimal"

	"clinicpos/m/domain"
	"clinicpos/m/internal/money"
)

// StripPrice is the GST-inclusive price when the catalog has one, otherwise
// the base selling price.
func StripPrice(m domain.Medicine) money.Amount {
	if m.TotalSellingPrice != nil {
		return *m.TotalSellingPrice
	}
	return m.SellingPrice
}

// UnitPrice is the price of one unit of the given sale type. Tablet prices
// are rounded half up to the minor unit.
func UnitPrice(m domain.Medicine, saleType domain.SaleType) money.Amount {
	strip := StripPrice(m)
	if saleType == domain.SaleTypeTablet {
		return strip.DivRound(m.Divisor())
	}
	return strip
}

// Breakdown splits a GST-exclusive base price into tax and total.
type Breakdown struct {
	Base       money.Amount    `json:"base"`
	GSTPercent decimal.Decimal `json:"gst_percent"`
	GSTAmount  money.Amount    `json:"gst_amount"`
	Total      money.Amount    `json:"total"`
}

// GST applies percent to base.
func GST(base money.Amount, percent decimal.Decimal) Breakdown {
	tax := base.Percent(percent)
	return Breakdown{
		Base:       base,
		GSTPercent: percent,
		GSTAmount:  tax,
		Total:      base + tax,
	}
}

// MedicineGST is the breakdown of the catalog selling price.
func MedicineGST(m domain.Medicine) Breakdown {
	return GST(m.SellingPrice, m.SellingPriceGST)
}
