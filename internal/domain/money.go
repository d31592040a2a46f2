// Package domain provides defenitions of all entities.
package domain

import "errors"

var (
	// ErrInvalidAmount indicates a non-positive transfer amount or a negative initial balance.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidCurrency indicates an empty or whitespace-only currency code.
	ErrInvalidCurrency = errors.New("invalid currency")
)

// Money holds an amount of a single currency in minor units (e.g. cents).
// It serves both as a transfer request value and as a balance snapshot.
type Money struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}
