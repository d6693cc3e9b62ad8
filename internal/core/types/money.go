// Package types provides common type aliases and monetary utilities.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnits represents a monetary value in minor currency units (cents).
// All ledger arithmetic and the balance invariant are computed on integers;
// decimal values exist only at the API boundary.
// Storage: int64 - sufficient for ±92 quadrillion cents.
type MinorUnits int64

func (m MinorUnits) IsZero() bool     { return m == 0 }
func (m MinorUnits) IsPositive() bool { return m > 0 }
func (m MinorUnits) IsNegative() bool { return m < 0 }
func (m MinorUnits) Neg() MinorUnits  { return -m }

func (m MinorUnits) Abs() MinorUnits {
	if m < 0 {
		return -m
	}
	return m
}

// Decimal converts minor units to a major-unit decimal (two places).
func (m MinorUnits) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders the value in major units, e.g. 50000 -> "500.00".
func (m MinorUnits) String() string {
	return m.Decimal().StringFixed(2)
}

// FromDecimal converts a major-unit decimal amount to minor units.
// Amounts with sub-cent precision are rejected rather than rounded:
// the smallest currency unit is the resolution of the ledger.
func FromDecimal(d decimal.Decimal) (MinorUnits, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", d.String())
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s overflows minor units", d.String())
	}
	return MinorUnits(shifted.IntPart()), nil
}

// MustFromDecimal converts or panics. Use only for constants and tests.
func MustFromDecimal(d decimal.Decimal) MinorUnits {
	m, err := FromDecimal(d)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimalString parses a major-unit decimal string into minor units.
func FromDecimalString(s string) (MinorUnits, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount: %w", err)
	}
	return FromDecimal(d)
}
