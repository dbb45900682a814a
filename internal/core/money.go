// Package core provides the transaction domain types.
//
// This file contains the lossless amount type. Amounts travel as decimal
// text so that no floating point conversion happens between the form, the
// client cache and the record store.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative decimal value. It marshals to JSON as a quoted
// decimal string and accepts both quoted and bare numbers on input.
type Amount struct {
	decimal.Decimal
}

// ParseAmount converts form text to an Amount.
//
// Examples:
//
//	ParseAmount("150000")    -> 150000, nil
//	ParseAmount(" 12.50 ")   -> 12.5, nil
//	ParseAmount("-1")        -> ErrNegativeAmount
//	ParseAmount("12,50")     -> ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	return Amount{Decimal: d}, nil
}

// MustAmount is ParseAmount for literals known to be valid.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic("core: invalid amount literal " + s)
	}
	return a
}

// Text returns the canonical decimal text, e.g. "150000" or "12.5".
func (a Amount) Text() string {
	return a.Decimal.String()
}

// Equal reports whether both amounts hold the same value.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}
