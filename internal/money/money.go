// Package money holds monetary values as integer minor units (paise).
// Decimal conversion happens only when values cross a JSON, SQL or display
// boundary.
package money

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units.
type Amount int64

const minorDigits = 2

// Max bounds any single price or line total (100,000,000,000.00). Totals
// of many lines stay inside int64 at this bound.
const Max Amount = 10_000_000_000_000

var hundred = decimal.NewFromInt(100)

// FromDecimal rounds d half away from zero to the nearest minor unit.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Round(minorDigits).Shift(minorDigits).IntPart())
}

// FromFloat is for literals and legacy float inputs only.
func FromFloat(f float64) Amount {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Parse reads a decimal string such as "12.5" or "100".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// Decimal returns the value in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -minorDigits)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(minorDigits)
}

// Mul multiplies by an integer quantity.
func (a Amount) Mul(q int64) Amount {
	return a * Amount(q)
}

// MulChecked multiplies by q and reports false when a or q is negative
// or the product would exceed Max.
func (a Amount) MulChecked(q int64) (Amount, bool) {
	if a < 0 || q < 0 || a > Max {
		return 0, false
	}
	if a != 0 && q > int64(Max/a) {
		return 0, false
	}
	return a * Amount(q), true
}

// DivRound divides by n and rounds half up. n must be positive.
func (a Amount) DivRound(n int64) Amount {
	if n <= 1 {
		return a
	}
	num := int64(a)
	if num < 0 {
		return -Amount((-num*2 + n) / (2 * n))
	}
	return Amount((num*2 + n) / (2 * n))
}

// Percent returns a × p / 100 rounded to the minor unit.
func (a Amount) Percent(p decimal.Decimal) Amount {
	return FromDecimal(a.Decimal().Mul(p).Div(hundred))
}

// NonNegative clamps negative values to zero.
func (a Amount) NonNegative() Amount {
	if a < 0 {
		return 0
	}
	return a
}

// Clamp limits a to [lo, hi].
func (a Amount) Clamp(lo, hi Amount) Amount {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// Sum adds all amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores minor units as an integer column.
func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

// Scan reads minor units written by Value.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = 0
	case int64:
		*a = Amount(v)
	case int32:
		*a = Amount(v)
	case float64:
		*a = Amount(v)
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}

func (a *Amount) scanString(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*a = Amount(d.IntPart())
	return nil
}
