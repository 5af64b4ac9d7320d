// Package amount converts between token base units and decimal notation.
package amount

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits of one whole token.
const Decimals = 18

// BpsBase is the denominator of basis-point rates (10000 bps = 100%).
const BpsBase = 10_000

var (
	// ErrOverflow is returned when a value does not fit in 256 bits.
	ErrOverflow = errors.New("amount overflows 256 bits")

	// ErrNegative is returned when parsing a negative decimal.
	ErrNegative = errors.New("amount must not be negative")

	// ErrPrecision is returned when a decimal has more than Decimals fractional digits.
	ErrPrecision = errors.New("amount has too many fractional digits")

	unit = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))
)

// Unit returns the number of base units in one whole token.
func Unit() *uint256.Int {
	return new(uint256.Int).Set(unit)
}

// Whole returns n whole tokens in base units.
func Whole(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), unit)
}

// Parse reads a decimal token amount ("9547.5") into base units.
func Parse(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("parse amount %q: %w", s, ErrNegative)
	}
	d = d.Shift(Decimals)
	if !d.IsInteger() {
		return nil, fmt.Errorf("parse amount %q: %w", s, ErrPrecision)
	}
	v, overflow := uint256.FromBig(d.BigInt())
	if overflow {
		return nil, fmt.Errorf("parse amount %q: %w", s, ErrOverflow)
	}
	return v, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) *uint256.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseBaseUnits reads an integer amount already expressed in base units.
func ParseBaseUnits(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse base units %q: %w", s, err)
	}
	return v, nil
}

// Format renders base units as a decimal token amount without trailing zeros.
func Format(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v.ToBig(), -Decimals).String()
}

// MulBps returns floor(v * bps / 10000).
func MulBps(v *uint256.Int, bps uint64) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).MulDivOverflow(v, uint256.NewInt(bps), uint256.NewInt(BpsBase))
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// AbsDiff returns |a - b|.
func AbsDiff(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return new(uint256.Int).Sub(b, a)
	}
	return new(uint256.Int).Sub(a, b)
}

// Within reports whether a and b differ by at most tolerance.
func Within(a, b, tolerance *uint256.Int) bool {
	return !AbsDiff(a, b).Gt(tolerance)
}

// Sum adds values, failing on overflow.
func Sum(values ...*uint256.Int) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, v := range values {
		if _, overflow := total.AddOverflow(total, v); overflow {
			return nil, ErrOverflow
		}
	}
	return total, nil
}

// Float returns v in whole tokens as a float64, for metrics and display only.
func Float(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(v.ToBig(), -Decimals).Float64()
	return f
}

// Value is a base-unit amount that encodes as a decimal token string
// ("9547.5") in JSON and text formats.
type Value uint256.Int

// NewValue copies v into a Value.
func NewValue(v *uint256.Int) Value {
	var out Value
	if v != nil {
		(*uint256.Int)(&out).Set(v)
	}
	return out
}

// Int returns the underlying integer.
func (v *Value) Int() *uint256.Int {
	return (*uint256.Int)(v)
}

func (v Value) String() string {
	return Format((*uint256.Int)(&v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Value) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	v.Int().Set(parsed)
	return nil
}
