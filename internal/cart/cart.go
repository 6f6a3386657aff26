// Package cart holds the provisional medicine lines of one in-flight sale.
// Reservations are virtual: the catalog is only read, never written.
package cart

import (
	"context"

	"clinicpos/m/domain"
	"clinicpos/m/internal/money"
	"clinicpos/m/internal/pricing"
)

// Catalog is the read side of the catalog store the cart needs.
type Catalog interface {
	Medicine(ctx context.Context, id int64) (domain.Medicine, error)
}

type lineKey struct {
	medicineID int64
	saleType   domain.SaleType
}

func keyOf(l domain.CartLine) lineKey {
	return lineKey{medicineID: l.MedicineID, saleType: l.SaleType}
}

// Cart is not safe for concurrent use; a session owns exactly one.
type Cart struct {
	catalog Catalog
	lines   []domain.CartLine
}

func New(catalog Catalog) *Cart {
	return &Cart{catalog: catalog}
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Reset drops every line.
func (c *Cart) Reset() {
	c.lines = nil
}

func (c *Cart) index(k lineKey) int {
	for i, l := range c.lines {
		if keyOf(l) == k {
			return i
		}
	}
	return -1
}

func tabletsFor(quantity int64, saleType domain.SaleType, tps int64) int64 {
	if saleType == domain.SaleTypeStrip {
		return quantity * tps
	}
	return quantity
}

// AddLine reserves quantity units of a medicine. A second add for the same
// medicine and sale type merges into the existing line at that line's
// unit price.
func (c *Cart) AddLine(ctx context.Context, medicineID, quantity int64, saleType domain.SaleType) (domain.CartLine, error) {
	if !saleType.Valid() {
		return domain.CartLine{}, &domain.ValidationError{Err: domain.ErrInvalidSaleType, Details: string(saleType)}
	}
	if quantity <= 0 {
		return domain.CartLine{}, domain.Rejectf(domain.ErrInvalidQuantity, "got %d", quantity)
	}

	m, found, err := c.lookup(ctx, medicineID)
	if err != nil {
		return domain.CartLine{}, err
	}
	if !found {
		return domain.CartLine{}, domain.Rejectf(domain.ErrInsufficientStock, "medicine %d is not in the catalog", medicineID)
	}

	// Compared in sale-type units so the tablet count below cannot overflow.
	avail := computeAvailability(m, c.reservedTablets(medicineID, nil))
	if quantity > avail.Units(saleType) {
		return domain.CartLine{}, domain.Rejectf(domain.ErrInsufficientStock,
			"%s: requested %d %s, available %d", m.Name, quantity, saleType, avail.Units(saleType))
	}
	requested := tabletsFor(quantity, saleType, avail.TabletsPerStrip)

	k := lineKey{medicineID: medicineID, saleType: saleType}
	if i := c.index(k); i >= 0 {
		line := c.lines[i]
		merged := line.Quantity + quantity
		total, ok := line.UnitPrice.MulChecked(merged)
		if !ok {
			return domain.CartLine{}, domain.Rejectf(domain.ErrAmountTooLarge,
				"%s: %d × %s", m.Name, merged, line.UnitPrice)
		}
		line.Quantity = merged
		line.TotalTablets = tabletsFor(merged, saleType, avail.TabletsPerStrip)
		line.TotalPrice = total
		c.lines[i] = line
		return line, nil
	}

	unit := pricing.UnitPrice(m, saleType)
	total, ok := unit.MulChecked(quantity)
	if !ok {
		return domain.CartLine{}, domain.Rejectf(domain.ErrAmountTooLarge,
			"%s: %d × %s", m.Name, quantity, unit)
	}
	line := domain.CartLine{
		MedicineID:   medicineID,
		Name:         m.Name,
		SaleType:     saleType,
		Quantity:     quantity,
		UnitPrice:    unit,
		TotalPrice:   total,
		TotalTablets: requested,
		GSTPercent:   m.SellingPriceGST,
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// UpdateLineQuantity sets a line's quantity. Zero or less removes the line.
// The new quantity is checked against the stock left by the other lines.
func (c *Cart) UpdateLineQuantity(ctx context.Context, medicineID int64, saleType domain.SaleType, quantity int64) error {
	k := lineKey{medicineID: medicineID, saleType: saleType}
	i := c.index(k)
	if i < 0 {
		return domain.Rejectf(domain.ErrLineNotFound, "medicine %d (%s)", medicineID, saleType)
	}
	if quantity <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return nil
	}

	m, found, err := c.lookup(ctx, medicineID)
	if err != nil {
		return err
	}
	if !found {
		return domain.Rejectf(domain.ErrInsufficientStock, "medicine %d is not in the catalog", medicineID)
	}

	avail := computeAvailability(m, c.reservedTablets(medicineID, &k))
	if quantity > avail.Units(saleType) {
		return domain.Rejectf(domain.ErrInsufficientStock,
			"%s: requested %d %s, available %d", m.Name, quantity, saleType, avail.Units(saleType))
	}

	line := c.lines[i]
	total, ok := line.UnitPrice.MulChecked(quantity)
	if !ok {
		return domain.Rejectf(domain.ErrAmountTooLarge, "%s: %d × %s", m.Name, quantity, line.UnitPrice)
	}
	line.Quantity = quantity
	line.TotalTablets = tabletsFor(quantity, saleType, avail.TabletsPerStrip)
	line.TotalPrice = total
	c.lines[i] = line
	return nil
}

// UpdateLinePrice overrides a line's unit price. Negative prices become 0.
func (c *Cart) UpdateLinePrice(medicineID int64, saleType domain.SaleType, unitPrice money.Amount) error {
	i := c.index(lineKey{medicineID: medicineID, saleType: saleType})
	if i < 0 {
		return domain.Rejectf(domain.ErrLineNotFound, "medicine %d (%s)", medicineID, saleType)
	}
	line := c.lines[i]
	unit := unitPrice.NonNegative()
	total, ok := unit.MulChecked(line.Quantity)
	if !ok {
		return domain.Rejectf(domain.ErrAmountTooLarge, "%s: %d × %s", line.Name, line.Quantity, unit)
	}
	line.UnitPrice = unit
	line.TotalPrice = total
	c.lines[i] = line
	return nil
}

// RemoveLine removes the line of the given sale type, or every line of the
// medicine when no sale type is passed.
func (c *Cart) RemoveLine(medicineID int64, saleType ...domain.SaleType) error {
	kept := c.lines[:0:0]
	removed := 0
	for _, l := range c.lines {
		if l.MedicineID == medicineID && (len(saleType) == 0 || l.SaleType == saleType[0]) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	if removed == 0 {
		return domain.Rejectf(domain.ErrLineNotFound, "medicine %d", medicineID)
	}
	c.lines = kept
	return nil
}
