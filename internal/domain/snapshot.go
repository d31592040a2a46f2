package domain

import "errors"

// ErrStorage indicates a failure in the persistence collaborator.
var ErrStorage = errors.New("ledger storage failure")

// Snapshot is the persisted form of the whole ledger state.
//
// The idempotency index is deliberately not part of the snapshot; it is
// derivable from the transactions and rebuilt on restore.
type Snapshot struct {
	Accounts     map[string]Account `json:"accounts"`
	Transactions []Transaction      `json:"transactions"`
	Sequence     uint64             `json:"sequence"`
}
