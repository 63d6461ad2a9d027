package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount with two decimal places, stored in cents.
type Money int64

const maxIntegerDigits = 15

func FromCents(cents int64) Money {
	return Money(cents)
}

func (m Money) Cents() int64 {
	return int64(m)
}

func (m Money) Sub(o Money) Money {
	return m - o
}

func (m Money) Add(o Money) Money {
	return m + o
}

func (m Money) IsNegative() bool {
	return m < 0
}

// MulRate multiplies by a rate expressed in basis points, rounding half up
// (half away from zero for negative amounts).
func (m Money) MulRate(basisPoints int64) Money {
	product := int64(m) * basisPoints
	if product < 0 {
		return Money(-((-product + 5000) / 10000))
	}
	return Money((product + 5000) / 10000)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Decimal returns the amount as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

var maxAmount = decimal.New(1, maxIntegerDigits)

// Parse reads a decimal amount such as "90", "90.5" or "90.00". Digits past
// the second decimal place are rounded half away from zero.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.ContainsAny(s, "eE") {
		return 0, fmt.Errorf("invalid amount %q: exponent notation not supported", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return Money(d.Round(2).Shift(2).IntPart()), nil
}

func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
