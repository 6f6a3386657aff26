package export

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"clinicpos/m/domain"
)

func TestWriteSales(t *testing.T) {
	sales := []domain.Sale{
		{
			ID: "a1", CustomerName: "Ravi", PatientID: "P-1", PaymentMethod: domain.PaymentCash,
			TotalAmount: 75650, Discount: 5000, FinalAmount: 70650,
			CreatedAt: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
			Items: []domain.SaleItem{
				{Position: 0, Kind: domain.ItemMedicine, Name: "Paracetamol", SaleType: domain.SaleTypeTablet,
					Quantity: 15, TotalTablets: 15, UnitPrice: 1000, TotalPrice: 15000, GSTPercent: decimal.NewFromInt(12)},
				{Position: 1, Kind: domain.ItemService, Name: "Dressing", Quantity: 1, UnitPrice: 15000, TotalPrice: 15000},
			},
		},
		{
			ID: "b2", CustomerName: "Meera", PatientID: "P-2", PaymentMethod: domain.PaymentCard,
			TotalAmount: 30000, FinalAmount: 30000,
			CreatedAt: time.Date(2026, 5, 4, 11, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteSales(&buf, sales); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(SalesSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("sales rows = %d", len(rows))
	}
	if rows[0][0] != "Sale ID" || rows[1][0] != "a1" || rows[2][2] != "Meera" {
		t.Errorf("rows = %v", rows)
	}
	final, err := strconv.ParseFloat(rows[1][7], 64)
	if err != nil || final != 706.5 {
		t.Errorf("final amount cell = %q", rows[1][7])
	}

	items, err := f.GetRows(ItemsSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("item rows = %d", len(items))
	}
	if items[1][3] != "Paracetamol" || items[1][4] != "tablet" || items[2][2] != "service" {
		t.Errorf("items = %v", items)
	}
}
