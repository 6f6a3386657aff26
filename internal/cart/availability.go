package cart

import (
	"context"
	"errors"
	"fmt"

	"clinicpos/m/domain"
	"clinicpos/m/internal/store"
)

// Availability is the stock left for reservation after the lines already
// in the cart.
type Availability struct {
	MedicineID      int64 `json:"medicine_id"`
	TabletsPerStrip int64 `json:"tablets_per_strip"`
	StockTablets    int64 `json:"stock_tablets"`
	ReservedTablets int64 `json:"reserved_tablets"`
	Tablets         int64 `json:"available_tablets"`
	Strips          int64 `json:"available_strips"`
}

// Units is the availability expressed in the given sale type.
func (a Availability) Units(saleType domain.SaleType) int64 {
	if saleType == domain.SaleTypeStrip {
		return a.Strips
	}
	return a.Tablets
}

func computeAvailability(m domain.Medicine, reserved int64) Availability {
	tps := m.Divisor()
	stock := m.TotalTablets()
	avail := stock - reserved
	if avail < 0 {
		avail = 0
	}
	return Availability{
		MedicineID:      m.ID,
		TabletsPerStrip: tps,
		StockTablets:    stock,
		ReservedTablets: reserved,
		Tablets:         avail,
		Strips:          avail / tps,
	}
}

// Available recomputes availability for one medicine from the current
// lines. An unknown medicine has zero availability.
func (c *Cart) Available(ctx context.Context, medicineID int64) (Availability, error) {
	m, found, err := c.lookup(ctx, medicineID)
	if err != nil {
		return Availability{}, err
	}
	if !found {
		return Availability{MedicineID: medicineID, TabletsPerStrip: 1}, nil
	}
	return computeAvailability(m, c.reservedTablets(medicineID, nil)), nil
}

func (c *Cart) reservedTablets(medicineID int64, exclude *lineKey) int64 {
	var reserved int64
	for _, l := range c.lines {
		if l.MedicineID != medicineID {
			continue
		}
		if exclude != nil && keyOf(l) == *exclude {
			continue
		}
		reserved += l.TotalTablets
	}
	return reserved
}

func (c *Cart) lookup(ctx context.Context, medicineID int64) (domain.Medicine, bool, error) {
	m, err := c.catalog.Medicine(ctx, medicineID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Medicine{}, false, nil
	}
	if err != nil {
		return domain.Medicine{}, false, fmt.Errorf("load medicine %d: %w", medicineID, err)
	}
	return m, true, nil
}
