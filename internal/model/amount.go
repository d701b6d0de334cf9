package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a currency-denominated decimal value.
// The zero value is a valid amount of 0.00.
type Amount struct {
	value decimal.Decimal
}

// NewAmount converts a float to an Amount. NaN and infinities become zero.
func NewAmount(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}
	}
	return Amount{value: decimal.NewFromFloat(f)}
}

// AmountFromDecimal wraps a decimal value.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{value: d}
}

// ParseAmount parses user input strictly. Both "12.50" and "12,50" are accepted.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Amount{}, &ValidationError{Field: "amount", Reason: "is required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, &ValidationError{Field: "amount", Reason: "must be a number"}
	}
	if d.IsNegative() {
		return Amount{}, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	return Amount{value: d}, nil
}

// LenientAmount parses s and falls back to zero on any failure.
func LenientAmount(s string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}
	}
	return Amount{value: d}
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{value: a.value.Add(b.value)}
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	return Amount{value: a.value.Abs()}
}

// Cmp compares a and b the way decimal.Decimal.Cmp does.
func (a Amount) Cmp(b Amount) int {
	return a.value.Cmp(b.value)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// Float64 returns the nearest float representation, for charts only.
func (a Amount) Float64() float64 {
	f, _ := a.value.Float64()
	return f
}

// String renders the amount with two decimals.
func (a Amount) String() string {
	return a.value.StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.value.StringFixed(2)), nil
}

// UnmarshalJSON never fails: null, missing, non-numeric and non-finite
// input all decode to zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = s
	}

	*a = LenientAmount(raw)
	return nil
}
