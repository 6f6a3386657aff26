package migrations

import (
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the clinic POS backend.
func Run(db *sqlx.DB) {
	if err := Apply(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}

// Apply is Run returning the error instead of exiting.
func Apply(db *sqlx.DB) error {
	// Identity columns differ between drivers; everything else is shared.
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "pgx" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id {{serial}},
            username TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS medicines (
            id {{serial}},
            name TEXT NOT NULL,
            brand TEXT NOT NULL DEFAULT '',
            quantity BIGINT NOT NULL CHECK (quantity >= 0),
            tablets_per_strip BIGINT NOT NULL DEFAULT 1 CHECK (tablets_per_strip >= 1),
            selling_price BIGINT NOT NULL,
            selling_price_gst TEXT NOT NULL DEFAULT '0',
            total_selling_price BIGINT,
            min_stock_level BIGINT NOT NULL DEFAULT 0,
            UNIQUE(name, brand)
        );`,
		`CREATE TABLE IF NOT EXISTS customers (
            id {{serial}},
            name TEXT NOT NULL,
            patient_id TEXT NOT NULL UNIQUE,
            phone TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS consultation_services (
            id {{serial}},
            name TEXT NOT NULL,
            amount BIGINT NOT NULL,
            is_default BOOLEAN NOT NULL DEFAULT FALSE
        );`,
		`CREATE TABLE IF NOT EXISTS sales (
            id TEXT PRIMARY KEY,
            customer_id BIGINT NOT NULL,
            customer_name TEXT NOT NULL,
            patient_id TEXT NOT NULL,
            total_amount BIGINT NOT NULL,
            discount BIGINT NOT NULL DEFAULT 0,
            final_amount BIGINT NOT NULL,
            payment_method TEXT NOT NULL,
            created_at TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS sale_items (
            sale_id TEXT NOT NULL,
            position INTEGER NOT NULL,
            kind TEXT NOT NULL,
            ref_id BIGINT NOT NULL,
            name TEXT NOT NULL,
            sale_type TEXT NOT NULL DEFAULT '',
            quantity BIGINT NOT NULL,
            unit_price BIGINT NOT NULL,
            total_price BIGINT NOT NULL,
            total_tablets BIGINT NOT NULL DEFAULT 0,
            gst_percent TEXT NOT NULL DEFAULT '0',
            PRIMARY KEY (sale_id, position),
            FOREIGN KEY(sale_id) REFERENCES sales(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);`,
	}

	for _, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{serial}}", serial)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
