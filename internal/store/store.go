// Package store defines the collaborator contracts the billing engine is
// wired to. Implementations live in memory and sqlstore.
package store

import (
	"context"
	"errors"
	"time"

	"clinicpos/m/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStaleStock is returned by Tx.DecrementStock when the stored
	// quantity no longer matches the expected one.
	ErrStaleStock = errors.New("stock quantity changed")
	ErrDuplicate  = errors.New("already exists")
)

// Catalog is the read side of the medicine catalog plus its admin writes.
type Catalog interface {
	Medicine(ctx context.Context, id int64) (domain.Medicine, error)
	SearchMedicines(ctx context.Context, query string, limit int) ([]domain.Medicine, error)
	LowStock(ctx context.Context) ([]domain.Medicine, error)
	CreateMedicine(ctx context.Context, m *domain.Medicine) error
}

// Customers is the patient collaborator.
type Customers interface {
	Customer(ctx context.Context, id int64) (domain.Customer, error)
	SearchCustomers(ctx context.Context, query string, limit int) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) error
}

// Settings provides the configured consultation services.
type Settings interface {
	ConsultationServices(ctx context.Context) ([]domain.ConsultationService, error)
	ConsultationService(ctx context.Context, id int64) (domain.ConsultationService, error)
	CreateConsultationService(ctx context.Context, s *domain.ConsultationService) error
}

// SaleFilter narrows ListSales. Zero times are open bounds.
type SaleFilter struct {
	From time.Time
	To   time.Time
}

// Sales is the read side of the sale log. Sales are appended through Tx.
type Sales interface {
	ListSales(ctx context.Context, f SaleFilter) ([]domain.Sale, error)
}

type Users interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// Tx is one unit of work. Everything done through it is applied together
// or not at all.
type Tx interface {
	Medicine(ctx context.Context, id int64) (domain.Medicine, error)
	// DecrementStock sets the quantity of a medicine to newQuantity if it
	// still equals expected.
	DecrementStock(ctx context.Context, id, expected, newQuantity int64) error
	InsertSale(ctx context.Context, sale *domain.Sale) error
}

// Store bundles every collaborator.
type Store interface {
	Catalog
	Customers
	Settings
	Sales
	Users
	// WithinTx runs fn in a unit of work, committing when fn returns nil.
	WithinTx(ctx context.Context, fn func(Tx) error) error
}
