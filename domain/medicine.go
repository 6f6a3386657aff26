package domain

import (
	"math"

	"github.com/shopspring/decimal"

	"clinicpos/m/internal/money"
)

// Medicine is a catalog entry. Quantity counts strips, or raw units when
// TabletsPerStrip is 1.
type Medicine struct {
	ID                int64           `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	Brand             string          `db:"brand" json:"brand"`
	Quantity          int64           `db:"quantity" json:"quantity"`
	TabletsPerStrip   int64           `db:"tablets_per_strip" json:"tablets_per_strip"`
	SellingPrice      money.Amount    `db:"selling_price" json:"selling_price"`
	SellingPriceGST   decimal.Decimal `db:"selling_price_gst" json:"selling_price_gst"`
	TotalSellingPrice *money.Amount   `db:"total_selling_price" json:"total_selling_price,omitempty"`
	MinStockLevel     int64           `db:"min_stock_level" json:"min_stock_level"`
}

// Divisor is TabletsPerStrip with non-positive values read as 1.
func (m Medicine) Divisor() int64 {
	if m.TabletsPerStrip < 1 {
		return 1
	}
	return m.TabletsPerStrip
}

// TotalTablets is the stock expressed in tablets, saturating at
// math.MaxInt64.
func (m Medicine) TotalTablets() int64 {
	if m.Quantity < 0 {
		return 0
	}
	d := m.Divisor()
	if m.Quantity > math.MaxInt64/d {
		return math.MaxInt64
	}
	return m.Quantity * d
}

// LowOnStock reports whether stock fell below the configured minimum.
func (m Medicine) LowOnStock() bool {
	return m.Quantity < m.MinStockLevel
}
