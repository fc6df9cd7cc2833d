/*
Package engine provides the shared value types for the payroll computation
engine.

PURPOSE:
  This package contains the domain-agnostic building blocks used by every
  computation package: exact money arithmetic, day-granularity time points,
  an injectable clock, and the common error vocabulary.

KEY CONCEPTS IN THIS FILE (money.go):
  - Money: An exact decimal amount in the local currency unit
  - Rounding: Results round to 2 decimal places at output boundaries only

DESIGN PRINCIPLES:
  1. Exactness: Uses decimal.Decimal so 0.1 + 0.2 is exactly 0.3
  2. Immutability: Every operation returns a new Money; nothing mutates
  3. Determinism: Identical inputs always produce bit-identical outputs,
     which is what makes payroll auditable and safely repeatable

USAGE:
  gross := engine.MoneyFromFloat(160).Mul(engine.MoneyFromFloat(150))
  net := gross.Sub(deductions).ClampZero()

SEE ALSO:
  - time.go: TimePoint and the Clock seam
  - errors.go: Common sentinel and structured errors
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact currency amount
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func MoneyFromFloat(v float64) Money {
	return Money{Value: decimal.NewFromFloat(v)}
}

func MoneyFromInt(v int64) Money {
	return Money{Value: decimal.NewFromInt(v)}
}

func MoneyZero() Money {
	return Money{Value: decimal.Zero}
}

// MustParseMoney parses a decimal string, returning zero on failure.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return MoneyZero()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(o Money) Money              { return Money{Value: m.Value.Mul(o.Value)} }
func (m Money) MulFloat(f float64) Money       { return m.Mul(MoneyFromFloat(f)) }
func (m Money) Div(o Money) Money              { return Money{Value: m.Value.Div(o.Value)} }
func (m Money) DivInt(n int64) Money           { return Money{Value: m.Value.Div(decimal.NewFromInt(n))} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// ClampZero floors the amount at zero. Deductions can never drive net pay
// negative; the excess is absorbed rather than carried forward.
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return MoneyZero()
	}
	return m
}

// Round2 rounds to 2 decimal places. Applied at result boundaries only so
// intermediate arithmetic stays exact.
func (m Money) Round2() Money {
	return Money{Value: m.Value.Round(2)}
}

// Float64 converts for display/serialization. Not for further arithmetic.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

func (m Money) String() string {
	return m.Value.StringFixed(2)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type BranchID string
