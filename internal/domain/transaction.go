package domain

import (
	"errors"
	"time"
)

// ErrInsufficientFunds indicates that the source account balance is
// smaller than the requested transfer amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Transaction holds the immutable record of one committed transfer.
type Transaction struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	FromAccountID  string    `json:"from_account_id"`
	ToAccountID    string    `json:"to_account_id"`
	Currency       string    `json:"currency"`
	Amount         int64     `json:"amount"` // minor units, always positive
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Sequence       uint64    `json:"sequence"`
}
