// Package sqlstore implements the stores over sqlx. Queries are written
// with ? placeholders and rebound for the connected driver, so the same
// code runs on SQLite and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"clinicpos/m/domain"
	"clinicpos/m/internal/store"
)

// Timestamps are stored as fixed-width UTC text so they sort the same way
// on every driver.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const medicineColumns = `id, name, brand, quantity, tablets_per_strip, selling_price,
	selling_price_gst, total_selling_price, min_stock_level`

type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func likePattern(query string) string {
	return "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
}

func (s *Store) Medicine(ctx context.Context, id int64) (domain.Medicine, error) {
	return medicine(ctx, s.db, id)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func medicine(ctx context.Context, q queryer, id int64) (domain.Medicine, error) {
	var m domain.Medicine
	query := q.Rebind(`SELECT ` + medicineColumns + ` FROM medicines WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &m, query, id); err != nil {
		return domain.Medicine{}, notFound(err)
	}
	return m, nil
}

func (s *Store) SearchMedicines(ctx context.Context, query string, limit int) ([]domain.Medicine, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := likePattern(query)
	var out []domain.Medicine
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`SELECT `+medicineColumns+` FROM medicines
		WHERE LOWER(name) LIKE ? OR LOWER(brand) LIKE ?
		ORDER BY name, id LIMIT ?`), pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search medicines: %w", err)
	}
	return out, nil
}

func (s *Store) LowStock(ctx context.Context) ([]domain.Medicine, error) {
	var out []domain.Medicine
	err := s.db.SelectContext(ctx, &out, `SELECT `+medicineColumns+` FROM medicines
		WHERE quantity < min_stock_level ORDER BY quantity, id`)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return out, nil
}

func (s *Store) CreateMedicine(ctx context.Context, m *domain.Medicine) error {
	if m.TabletsPerStrip < 1 {
		m.TabletsPerStrip = 1
	}
	query := s.db.Rebind(`INSERT INTO medicines (name, brand, quantity, tablets_per_strip, selling_price,
		selling_price_gst, total_selling_price, min_stock_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := s.db.GetContext(ctx, &m.ID, query, m.Name, m.Brand, m.Quantity, m.TabletsPerStrip,
		m.SellingPrice, m.SellingPriceGST, m.TotalSellingPrice, m.MinStockLevel)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create medicine: %w", err)
	}
	return nil
}

func (s *Store) Customer(ctx context.Context, id int64) (domain.Customer, error) {
	var c domain.Customer
	err := s.db.GetContext(ctx, &c, s.db.Rebind(`SELECT id, name, patient_id, phone FROM customers WHERE id = ?`), id)
	if err != nil {
		return domain.Customer{}, notFound(err)
	}
	return c, nil
}

func (s *Store) SearchCustomers(ctx context.Context, query string, limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := likePattern(query)
	var out []domain.Customer
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`SELECT id, name, patient_id, phone FROM customers
		WHERE LOWER(name) LIKE ? OR LOWER(patient_id) LIKE ? OR phone LIKE ?
		ORDER BY id LIMIT ?`), pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return out, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	err := s.db.GetContext(ctx, &c.ID,
		s.db.Rebind(`INSERT INTO customers (name, patient_id, phone) VALUES (?, ?, ?) RETURNING id`),
		c.Name, c.PatientID, c.Phone)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (s *Store) ConsultationServices(ctx context.Context) ([]domain.ConsultationService, error) {
	var out []domain.ConsultationService
	err := s.db.SelectContext(ctx, &out, `SELECT id, name, amount, is_default FROM consultation_services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list consultation services: %w", err)
	}
	return out, nil
}

func (s *Store) ConsultationService(ctx context.Context, id int64) (domain.ConsultationService, error) {
	var svc domain.ConsultationService
	err := s.db.GetContext(ctx, &svc,
		s.db.Rebind(`SELECT id, name, amount, is_default FROM consultation_services WHERE id = ?`), id)
	if err != nil {
		return domain.ConsultationService{}, notFound(err)
	}
	return svc, nil
}

func (s *Store) CreateConsultationService(ctx context.Context, svc *domain.ConsultationService) error {
	err := s.db.GetContext(ctx, &svc.ID,
		s.db.Rebind(`INSERT INTO consultation_services (name, amount, is_default) VALUES (?, ?, ?) RETURNING id`),
		svc.Name, svc.Amount, svc.IsDefault)
	if err != nil {
		return fmt.Errorf("create consultation service: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.CreatedAt == "" {
		u.CreatedAt = time.Now().UTC().Format(timeLayout)
	}
	err := s.db.GetContext(ctx, &u.ID,
		s.db.Rebind(`INSERT INTO users (username, email, password, role, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`),
		u.Username, strings.ToLower(u.Email), u.Password, u.Role, u.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u,
		s.db.Rebind(`SELECT id, username, email, password, role, created_at FROM users WHERE email = ?`),
		strings.ToLower(email))
	if err != nil {
		return domain.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET password = ? WHERE id = ?`), hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type saleRow struct {
	domain.Sale
	CreatedAt string `db:"created_at"`
}

// ListSales returns matching sales with their items, newest first.
func (s *Store) ListSales(ctx context.Context, f store.SaleFilter) ([]domain.Sale, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.From.UTC().Format(timeLayout))
	}
	if !f.To.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, f.To.UTC().Format(timeLayout))
	}
	query := `SELECT id, customer_id, customer_name, patient_id, total_amount, discount,
		final_amount, payment_method, created_at FROM sales`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	var rows []saleRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	sales := make([]domain.Sale, len(rows))
	index := make(map[string]int, len(rows))
	ids := make([]string, len(rows))
	for i, r := range rows {
		sale := r.Sale
		t, err := time.Parse(timeLayout, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("sale %s created_at: %w", sale.ID, err)
		}
		sale.CreatedAt = t
		sales[i] = sale
		index[sale.ID] = i
		ids[i] = sale.ID
	}

	itemQuery, itemArgs, err := sqlx.In(`SELECT sale_id, position, kind, ref_id, name, sale_type, quantity,
		unit_price, total_price, total_tablets, gst_percent FROM sale_items
		WHERE sale_id IN (?) ORDER BY sale_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	var items []domain.SaleItem
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(itemQuery), itemArgs...); err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	for _, it := range items {
		i := index[it.SaleID]
		sales[i].Items = append(sales[i].Items, it)
	}
	return sales, nil
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&txStore{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type txStore struct {
	tx *sqlx.Tx
}

func (t *txStore) Medicine(ctx context.Context, id int64) (domain.Medicine, error) {
	return medicine(ctx, t.tx, id)
}

func (t *txStore) DecrementStock(ctx context.Context, id, expected, newQuantity int64) error {
	res, err := t.tx.ExecContext(ctx,
		t.tx.Rebind(`UPDATE medicines SET quantity = ? WHERE id = ? AND quantity = ?`),
		newQuantity, id, expected)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if n == 0 {
		return store.ErrStaleStock
	}
	return nil
}

func (t *txStore) InsertSale(ctx context.Context, sale *domain.Sale) error {
	row := saleRow{Sale: *sale, CreatedAt: sale.CreatedAt.UTC().Format(timeLayout)}
	_, err := t.tx.NamedExecContext(ctx, `INSERT INTO sales (id, customer_id, customer_name, patient_id,
		total_amount, discount, final_amount, payment_method, created_at)
		VALUES (:id, :customer_id, :customer_name, :patient_id, :total_amount, :discount,
		:final_amount, :payment_method, :created_at)`, row)
	if isUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	for _, it := range sale.Items {
		it.SaleID = sale.ID
		_, err := t.tx.NamedExecContext(ctx, `INSERT INTO sale_items (sale_id, position, kind, ref_id, name,
			sale_type, quantity, unit_price, total_price, total_tablets, gst_percent)
			VALUES (:sale_id, :position, :kind, :ref_id, :name, :sale_type, :quantity, :unit_price,
			:total_price, :total_tablets, :gst_percent)`, it)
		if err != nil {
			return fmt.Errorf("insert sale item %d: %w", it.Position, err)
		}
	}
	return nil
}
