// Package core holds the ledger's domain types and the pure engine:
// money parsing, date-windowed filtering and category aggregation.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ToCents converts a user-typed decimal amount to integer cents.
//
// The input must have an optional integer part and, if a dot is present,
// exactly two fractional digits ("12", "12.50", ".05"). Anything else,
// including a single fractional digit or an empty string, fails with
// ErrAmountFormat. Zero-valued strings like "0.00" parse fine; rejecting
// them is the caller's job (see IsZeroAmount).
//
// Examples:
//
//	ToCents("12.50") -> 1250, nil
//	ToCents("0.01")  -> 1, nil
//	ToCents("12.5")  -> 0, ErrAmountFormat
func ToCents(amount string) (int64, error) {
	if amount == "" {
		return 0, ErrAmountFormat
	}
	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return 0, ErrAmountFormat
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
		if len(fracPart) != 2 {
			return 0, ErrAmountFormat
		}
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrAmountFormat
		}
	}

	var dollars int64
	if intPart != "" {
		v, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil {
			return 0, ErrAmountFormat
		}
		const maxSafe = (1<<63 - 1) / 100
		if v > maxSafe {
			return 0, ErrAmountFormat
		}
		dollars = v
	}

	cents := dollars * 100
	if fracPart != "" {
		f, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, ErrAmountFormat
		}
		cents += f
	}
	return cents, nil
}

// ToDisplay renders cents as a dollar string with exactly two fractional
// digits. Integer arithmetic only; no float rounding can creep in.
func ToDisplay(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// IsZeroAmount reports whether a well-formed amount string denotes zero,
// i.e. every character is '0' or '.'. Callers use it to refuse net-zero
// expenses before conversion.
func IsZeroAmount(amount string) bool {
	if amount == "" {
		return true
	}
	for _, r := range amount {
		if r != '0' && r != '.' {
			return false
		}
	}
	return true
}
