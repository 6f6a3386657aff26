package seed

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"clinicpos/m/internal/database"
	"clinicpos/m/internal/migrations"
)

const catalogCSV = `name,brand,quantity,tablets_per_strip,selling_price,selling_price_gst,min_stock_level
Paracetamol 500,Calpol,40,10,32.50,12,10
Cough Syrup,Benadryl,12,1,85.50,18,5
Broken,Row,not-a-number,10,1,0,1
,Nameless,1,1,1,0,1
Negative Price,Acme,1,1,-4,0,1
Negative GST,Acme,1,1,4,-5,1
Paracetamol 500,Calpol,99,10,1,0,1
`

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Apply(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestReadMedicines(t *testing.T) {
	db := openDB(t)

	n, err := ReadMedicines(db, strings.NewReader(catalogCSV))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("inserted %d rows, want 2", n)
	}

	var qty, price int64
	if err := db.QueryRow(`SELECT quantity, selling_price FROM medicines WHERE name = 'Paracetamol 500'`).Scan(&qty, &price); err != nil {
		t.Fatal(err)
	}
	if qty != 40 || price != 3250 {
		t.Errorf("paracetamol = %d strips at %d", qty, price)
	}

	// a second load is a no-op
	n, err = ReadMedicines(db, strings.NewReader(catalogCSV))
	if err != nil || n != 0 {
		t.Errorf("reload = %d, %v", n, err)
	}
}

func TestReadMedicinesEmpty(t *testing.T) {
	if _, err := ReadMedicines(openDB(t), strings.NewReader("")); err == nil {
		t.Error("expected error for missing header")
	}
}

func TestReadMedicinesRollsBackOnInsertFailure(t *testing.T) {
	db := openDB(t)
	if _, err := db.Exec(`CREATE TRIGGER reject_recalled BEFORE INSERT ON medicines
		WHEN NEW.name = 'Recalled' BEGIN SELECT RAISE(ABORT, 'recalled medicine'); END`); err != nil {
		t.Fatal(err)
	}

	csv := catalogCSV + "Recalled,Acme,3,10,5,0,1\nAntacid,Digene,8,1,12,5,2\n"
	if _, err := ReadMedicines(db, strings.NewReader(csv)); err == nil {
		t.Fatal("expected the failed insert to be reported")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM medicines`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("%d medicines kept after a failed seed, want 0", count)
	}
}
