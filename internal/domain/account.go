package domain

import (
	"errors"
	"time"
)

// ErrAccountNotFound indicates that the referenced account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// Account holds per-currency balances for a single account.
// A currency absent from Balances reads as zero.
type Account struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Balances  map[string]int64 `json:"balances"` // currency -> minor units
}
