package valueobject

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is prefixed to displayed prices
const CurrencySymbol = "$"

// AbsentDisplay is shown in place of a price that is not set
const AbsentDisplay = "-"

// ErrNegativePrice is returned when a price amount is below zero
var ErrNegativePrice = errors.New("price cannot be negative")

// Price is an optional, non-negative monetary amount.
// The zero value is an absent price, which is distinct from a price of 0.
type Price struct {
	amount decimal.Decimal
	set    bool
}

// NoPrice returns an absent price
func NoPrice() Price {
	return Price{}
}

// NewPrice creates a set price from a decimal amount
func NewPrice(amount decimal.Decimal) (Price, error) {
	if amount.IsNegative() {
		return Price{}, ErrNegativePrice
	}
	return Price{amount: amount, set: true}, nil
}

// NewPriceFromFloat creates a set price from a float64 amount
func NewPriceFromFloat(amount float64) (Price, error) {
	return NewPrice(decimal.NewFromFloat(amount))
}

// MustPrice creates a price from a float64 and panics on a negative amount.
// Intended for literals in tests and seed data.
func MustPrice(amount float64) Price {
	p, err := NewPriceFromFloat(amount)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrice parses a display string such as "$150.00", "1,200.5" or "99".
// An empty string yields an absent price.
func ParsePrice(s string) (Price, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, CurrencySymbol)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return NoPrice(), nil
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return NewPrice(d)
}

// IsSet reports whether the price carries an amount
func (p Price) IsSet() bool {
	return p.set
}

// Amount returns the amount and whether the price is set
func (p Price) Amount() (decimal.Decimal, bool) {
	return p.amount, p.set
}

// Equals returns true if both prices are absent, or both are set to the same amount
func (p Price) Equals(other Price) bool {
	if p.set != other.set {
		return false
	}
	return !p.set || p.amount.Equal(other.amount)
}

// Display formats the price the way the catalog screen shows it, e.g. "$150.00"
func (p Price) Display() string {
	if !p.set {
		return AbsentDisplay
	}
	return CurrencySymbol + p.amount.StringFixed(2)
}

// String implements fmt.Stringer
func (p Price) String() string {
	return p.Display()
}

// MarshalJSON writes the amount as a JSON number, or null when absent
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	return []byte(p.amount.String()), nil
}

// UnmarshalJSON accepts null, a JSON number, or a formatted string like "$150.00"
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = NoPrice()
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParsePrice(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid price: %w", err)
	}
	parsed, err := NewPrice(d)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
