package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"clinicpos/m/internal/money"
)

// SaleType is the unit a medicine line is sold in.
type SaleType string

const (
	SaleTypeStrip  SaleType = "strip"
	SaleTypeTablet SaleType = "tablet"
)

// Valid reports whether t is a known sale type.
func (t SaleType) Valid() bool {
	return t == SaleTypeStrip || t == SaleTypeTablet
}

// ParseSaleType validates a sale type read from user input.
func ParseSaleType(s string) (SaleType, error) {
	t := SaleType(s)
	if !t.Valid() {
		return "", &ValidationError{Err: ErrInvalidSaleType, Details: s}
	}
	return t, nil
}

// CartLine is a provisional medicine line of an in-flight sale. It refers
// to the catalog by id only.
type CartLine struct {
	MedicineID   int64           `json:"medicine_id"`
	Name         string          `json:"name"`
	SaleType     SaleType        `json:"sale_type"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    money.Amount    `json:"unit_price"`
	TotalPrice   money.Amount    `json:"total_price"`
	TotalTablets int64           `json:"total_tablets"`
	GSTPercent   decimal.Decimal `json:"gst_percent"`
}

// ServiceSelection is a provisional consultation service line.
type ServiceSelection struct {
	ServiceID   int64         `json:"service_id"`
	Name        string        `json:"name"`
	Amount      money.Amount  `json:"amount"`
	Quantity    int64         `json:"quantity"`
	CustomPrice *money.Amount `json:"custom_price,omitempty"`
}

// UnitPrice is the custom price when set, otherwise the catalog amount.
func (s ServiceSelection) UnitPrice() money.Amount {
	if s.CustomPrice != nil {
		return *s.CustomPrice
	}
	return s.Amount
}

// Total is Quantity × UnitPrice.
func (s ServiceSelection) Total() money.Amount {
	return s.UnitPrice().Mul(s.Quantity)
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

// ParsePaymentMethod validates a payment method read from user input.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch pm := PaymentMethod(s); pm {
	case PaymentCash, PaymentCard, PaymentUPI:
		return pm, nil
	}
	return "", &ValidationError{Err: ErrInvalidPaymentMethod, Details: s}
}

type ItemKind string

const (
	ItemMedicine ItemKind = "medicine"
	ItemService  ItemKind = "service"
)

// Sale is a committed, immutable bill.
type Sale struct {
	ID            string        `db:"id" json:"id"`
	CustomerID    int64         `db:"customer_id" json:"customer_id"`
	CustomerName  string        `db:"customer_name" json:"customer_name"`
	PatientID     string        `db:"patient_id" json:"patient_id"`
	Items         []SaleItem    `db:"-" json:"items"`
	TotalAmount   money.Amount  `db:"total_amount" json:"total_amount"`
	Discount      money.Amount  `db:"discount" json:"discount"`
	FinalAmount   money.Amount  `db:"final_amount" json:"final_amount"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`
	CreatedAt     time.Time     `db:"-" json:"created_at"`
}

// SaleItem is one frozen medicine line or service selection.
type SaleItem struct {
	SaleID       string          `db:"sale_id" json:"-"`
	Position     int             `db:"position" json:"position"`
	Kind         ItemKind        `db:"kind" json:"kind"`
	RefID        int64           `db:"ref_id" json:"ref_id"`
	Name         string          `db:"name" json:"name"`
	SaleType     SaleType        `db:"sale_type" json:"sale_type,omitempty"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	UnitPrice    money.Amount    `db:"unit_price" json:"unit_price"`
	TotalPrice   money.Amount    `db:"total_price" json:"total_price"`
	TotalTablets int64           `db:"total_tablets" json:"total_tablets,omitempty"`
	GSTPercent   decimal.Decimal `db:"gst_percent" json:"gst_percent"`
}
