package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"clinicpos/m/domain"
	"clinicpos/m/internal/database"
	"clinicpos/m/internal/migrations"
	"clinicpos/m/internal/money"
	"clinicpos/m/internal/store"
)

func setup(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "pos.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Apply(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func TestMedicines(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	inclusive := money.Amount(11800)
	para := &domain.Medicine{
		Name: "Paracetamol", Brand: "Calpol", Quantity: 5, TabletsPerStrip: 10,
		SellingPrice: 10000, SellingPriceGST: decimal.NewFromInt(18), TotalSellingPrice: &inclusive,
		MinStockLevel: 10,
	}
	if err := s.CreateMedicine(ctx, para); err != nil {
		t.Fatal(err)
	}
	if para.ID == 0 {
		t.Fatal("id not assigned")
	}
	if err := s.CreateMedicine(ctx, &domain.Medicine{Name: "Paracetamol", Brand: "Calpol"}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate error = %v", err)
	}
	syrup := &domain.Medicine{Name: "Benadryl", Brand: "J&J", Quantity: 12, SellingPrice: 8550}
	if err := s.CreateMedicine(ctx, syrup); err != nil {
		t.Fatal(err)
	}

	got, err := s.Medicine(ctx, para.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalSellingPrice == nil || *got.TotalSellingPrice != 11800 || !got.SellingPriceGST.Equal(decimal.NewFromInt(18)) {
		t.Errorf("medicine = %+v", got)
	}
	other, _ := s.Medicine(ctx, syrup.ID)
	if other.TotalSellingPrice != nil || other.TabletsPerStrip != 1 {
		t.Errorf("syrup = %+v", other)
	}
	if _, err := s.Medicine(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing error = %v", err)
	}

	found, err := s.SearchMedicines(ctx, "CALP", 10)
	if err != nil || len(found) != 1 || found[0].ID != para.ID {
		t.Errorf("search = %+v, %v", found, err)
	}
	low, err := s.LowStock(ctx)
	if err != nil || len(low) != 1 || low[0].ID != para.ID {
		t.Errorf("low stock = %+v, %v", low, err)
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	m := &domain.Medicine{Name: "Cetirizine", Quantity: 8, TabletsPerStrip: 10, SellingPrice: 3000}
	if err := s.CreateMedicine(ctx, m); err != nil {
		t.Fatal(err)
	}

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.DecrementStock(ctx, m.ID, 8, 6); err != nil {
			return err
		}
		return tx.DecrementStock(ctx, m.ID, 8, 4)
	})
	if !errors.Is(err, store.ErrStaleStock) {
		t.Fatalf("error = %v", err)
	}
	got, _ := s.Medicine(ctx, m.ID)
	if got.Quantity != 8 {
		t.Errorf("quantity after rollback = %d", got.Quantity)
	}
}

func TestSalesRoundTrip(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	m := &domain.Medicine{Name: "Cetirizine", Quantity: 8, TabletsPerStrip: 10, SellingPrice: 3000}
	if err := s.CreateMedicine(ctx, m); err != nil {
		t.Fatal(err)
	}
	created := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	sale := &domain.Sale{
		ID: "7f1c", CustomerID: 3, CustomerName: "Ravi", PatientID: "P-3",
		TotalAmount: 33000, Discount: 1000, FinalAmount: 32000, PaymentMethod: domain.PaymentCard,
		CreatedAt: created,
		Items: []domain.SaleItem{
			{Position: 0, Kind: domain.ItemMedicine, RefID: m.ID, Name: m.Name, SaleType: domain.SaleTypeTablet,
				Quantity: 10, UnitPrice: 300, TotalPrice: 3000, TotalTablets: 10, GSTPercent: decimal.NewFromInt(12)},
			{Position: 1, Kind: domain.ItemService, RefID: 1, Name: "Consultation", Quantity: 1,
				UnitPrice: 30000, TotalPrice: 30000, GSTPercent: decimal.Zero},
		},
	}
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.DecrementStock(ctx, m.ID, 8, 7); err != nil {
			return err
		}
		return tx.InsertSale(ctx, sale)
	})
	if err != nil {
		t.Fatal(err)
	}

	if got, _ := s.Medicine(ctx, m.ID); got.Quantity != 7 {
		t.Errorf("quantity = %d", got.Quantity)
	}
	sales, err := s.ListSales(ctx, store.SaleFilter{From: created.Add(-time.Hour), To: created.Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(sales) != 1 {
		t.Fatalf("sales = %+v", sales)
	}
	got := sales[0]
	if !got.CreatedAt.Equal(created) || got.FinalAmount != 32000 || got.PaymentMethod != domain.PaymentCard {
		t.Errorf("sale = %+v", got)
	}
	if len(got.Items) != 2 || got.Items[0].SaleType != domain.SaleTypeTablet || got.Items[1].Kind != domain.ItemService {
		t.Errorf("items = %+v", got.Items)
	}
	if !got.Items[0].GSTPercent.Equal(decimal.NewFromInt(12)) {
		t.Errorf("gst = %s", got.Items[0].GSTPercent)
	}

	none, err := s.ListSales(ctx, store.SaleFilter{From: created.Add(time.Hour)})
	if err != nil || len(none) != 0 {
		t.Errorf("filtered sales = %+v, %v", none, err)
	}
}

func TestCustomersServicesUsers(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	c := &domain.Customer{Name: "Meera", PatientID: "P-10", Phone: "9000"}
	if err := s.CreateCustomer(ctx, c); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateCustomer(ctx, &domain.Customer{Name: "X", PatientID: "P-10"}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate = %v", err)
	}
	found, err := s.SearchCustomers(ctx, "mee", 5)
	if err != nil || len(found) != 1 {
		t.Errorf("customers = %+v, %v", found, err)
	}

	svc := &domain.ConsultationService{Name: "Consultation", Amount: 30000, IsDefault: true}
	if err := s.CreateConsultationService(ctx, svc); err != nil {
		t.Fatal(err)
	}
	all, err := s.ConsultationServices(ctx)
	if err != nil || len(all) != 1 || !all[0].IsDefault || all[0].Amount != 30000 {
		t.Errorf("services = %+v, %v", all, err)
	}

	u := &domain.User{Username: "asha", Email: "Asha@Clinic.test", Password: "hash", Role: domain.RoleOwner}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	got, err := s.UserByEmail(ctx, "asha@clinic.test")
	if err != nil || got.ID != u.ID || got.Role != domain.RoleOwner {
		t.Errorf("user = %+v, %v", got, err)
	}
	if err := s.CreateUser(ctx, &domain.User{Email: "asha@clinic.test"}); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate user = %v", err)
	}
}
