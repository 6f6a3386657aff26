package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"clinicpos/m/internal/money"
)

// LoadMedicines ingests the CSV into the medicines table, ignoring duplicates.
func LoadMedicines(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load medicine catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	rows, err := ReadMedicines(db, file)
	if err != nil {
		log.Printf("unable to seed medicine catalog: %v", err)
		return
	}
	log.Printf("seeded medicine catalog with %d rows", rows)
}

// ReadMedicines inserts every row of r in one transaction and returns the
// number of rows inserted. The header row is
// name,brand,quantity,tablets_per_strip,selling_price,selling_price_gst,min_stock_level.
// Malformed or out of range rows are logged and skipped. A failed insert
// rolls back every row.
func ReadMedicines(db *sqlx.DB, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("read medicine header: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("start medicine transaction: %w", err)
	}
	stmt, err := tx.Preparex(tx.Rebind(`INSERT INTO medicines (name, brand, quantity, tablets_per_strip,
		selling_price, selling_price_gst, min_stock_level) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, brand) DO NOTHING`))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare medicine insert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read medicine row: %v", err)
			continue
		}
		if len(record) < 7 {
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		brand := strings.TrimSpace(record[1])
		quantity, errQ := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
		tps, errT := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		price, errP := money.Parse(record[4])
		gst, errG := decimal.NewFromString(strings.TrimSpace(record[5]))
		minStock, errM := strconv.ParseInt(strings.TrimSpace(record[6]), 10, 64)
		if errQ != nil || errT != nil || errP != nil || errG != nil || errM != nil {
			log.Printf("skipping malformed medicine row %q", record)
			continue
		}
		if tps < 1 {
			tps = 1
		}
		if quantity < 0 || price < 0 || price > money.Max || gst.IsNegative() || minStock < 0 || quantity > math.MaxInt64/tps {
			log.Printf("skipping out of range medicine row %q", record)
			continue
		}

		// A failed insert aborts the whole transaction on PostgreSQL, so
		// the seed stops here instead of carrying on with a dead tx.
		res, err := stmt.Exec(name, brand, quantity, tps, price, gst, minStock)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert medicine %s: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit medicine seed: %w", err)
	}
	return rows, nil
}
