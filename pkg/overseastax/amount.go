package overseastax

import (
	"database/sql/driver"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount wraps decimal.Decimal for monetary values and share quantities.
// JSON marshaling outputs a plain number (not a quoted string) so results
// read naturally in exports and API payloads, while all intermediate
// arithmetic stays exact. Rounding happens only at presentation boundaries.
type Amount struct {
	decimal.Decimal
}

// NewAmount creates an Amount from a float64.
func NewAmount(f float64) Amount {
	return Amount{decimal.NewFromFloat(f)}
}

// NewAmountFromInt creates an Amount from an int64.
func NewAmountFromInt(i int64) Amount {
	return Amount{decimal.NewFromInt(i)}
}

// amt wraps a raw decimal into an Amount.
func amt(d decimal.Decimal) Amount {
	return Amount{d}
}

// MarshalJSON outputs as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	f, _ := a.Round(4).Float64()
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// Scan implements sql.Scanner, reading from SQLite REAL, INTEGER or TEXT columns.
func (a *Amount) Scan(src any) error {
	if src == nil {
		a.Decimal = decimal.Zero
		return nil
	}
	switch v := src.(type) {
	case float64:
		a.Decimal = decimal.NewFromFloat(v)
		return nil
	case int64:
		a.Decimal = decimal.NewFromInt(v)
		return nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return err
		}
		a.Decimal = d
		return nil
	}
	return a.Decimal.Scan(src)
}

// Value implements driver.Valuer for database writes.
func (a Amount) Value() (driver.Value, error) {
	f, _ := a.Round(4).Float64()
	return f, nil
}
