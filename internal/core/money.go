// Package core provides the ledger domain model plus money and date
// normalization utilities.
//
// This file contains functions for parsing monetary amounts from
// heterogeneous textual input into fixed two-decimal values.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a non-negative amount with two
// decimal places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, tolerates
// spaces used as thousands separators, and performs half-up rounding on the
// third decimal place. Returns ErrInvalidAmount for negative values, explicit
// signs, or anything that is not a plain decimal number.
//
// Examples:
//
//	ParseAmount("12.34")   -> 12.34
//	ParseAmount("12,34")   -> 12.34
//	ParseAmount("12 500")  -> 12500.00
//	ParseAmount("12.345")  -> 12.35 (rounds up)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Spaces inside a number are thousands separators; a decimal comma is
	// normalized to a dot.
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only unsigned values allowed
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && (r < '0' || r > '9') {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	// Half-up rounding to two decimal places.
	return d.Round(2), nil
}

// Cents converts a two-decimal amount to integer cents for storage.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(decimal.New(100, 0)).IntPart()
}

// FromCents converts stored integer cents back to a two-decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
