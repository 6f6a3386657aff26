// Package export writes finalized sales to Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"clinicpos/m/domain"
	"clinicpos/m/internal/money"
)

const (
	SalesSheet = "Sales"
	ItemsSheet = "Items"
)

var (
	salesHeader = []any{"Sale ID", "Date", "Customer", "Patient ID", "Payment", "Total", "Discount", "Final Amount"}
	itemsHeader = []any{"Sale ID", "#", "Kind", "Name", "Sale Type", "Quantity", "Tablets", "Unit Price", "Line Total", "GST %"}
)

func amount(a money.Amount) float64 {
	return a.Decimal().InexactFloat64()
}

// WriteSales renders one row per sale and one row per sale item.
func WriteSales(w io.Writer, sales []domain.Sale) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SalesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return err
	}
	money2, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := writeRow(f, SalesSheet, 1, salesHeader); err != nil {
		return err
	}
	if err := writeRow(f, ItemsSheet, 1, itemsHeader); err != nil {
		return err
	}

	itemRow := 2
	for i, s := range sales {
		row := []any{
			s.ID,
			s.CreatedAt.Format("2006-01-02 15:04"),
			s.CustomerName,
			s.PatientID,
			string(s.PaymentMethod),
			amount(s.TotalAmount),
			amount(s.Discount),
			amount(s.FinalAmount),
		}
		if err := writeRow(f, SalesSheet, i+2, row); err != nil {
			return err
		}
		for _, it := range s.Items {
			gst, _ := it.GSTPercent.Float64()
			row := []any{
				s.ID,
				it.Position + 1,
				string(it.Kind),
				it.Name,
				string(it.SaleType),
				it.Quantity,
				it.TotalTablets,
				amount(it.UnitPrice),
				amount(it.TotalPrice),
				gst,
			}
			if err := writeRow(f, ItemsSheet, itemRow, row); err != nil {
				return err
			}
			itemRow++
		}
	}

	for _, sheet := range []string{SalesSheet, ItemsSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(SalesSheet, "F:H", money2); err != nil {
		return err
	}
	if err := f.SetColStyle(ItemsSheet, "H:I", money2); err != nil {
		return err
	}
	if err := f.SetColWidth(SalesSheet, "A", "A", 38); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
