// Package ledgerservice manages business logic layer of the ledger.
//
// The whole ledger state lives behind one readers-writer lock: a
// transfer touches two accounts, the idempotency index, the sequence
// counter and the log, and the coarse lock keeps that mutation atomic
// without any lock-ordering concerns.
package ledgerservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/currencypkg"
	"github.com/go-petr/pet-ledger/pkg/idpkg"
)

const (
	maxPageSize     = 1000
	defaultPageSize = 100
)

// Service facilitates ledger business logic. It is safe for concurrent
// use by multiple request handlers.
type Service struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	transactions []domain.Transaction
	idempotency  map[string]domain.Transaction
	sequence     uint64
}

// New returns an empty ledger service.
func New() *Service {
	return &Service{
		accounts:    make(map[string]*domain.Account),
		idempotency: make(map[string]domain.Transaction),
	}
}

// NewFromSnapshot restores a ledger service from persisted state.
// The idempotency index is rebuilt from the transaction log; the first
// transaction carrying a given key wins, matching commit order.
func NewFromSnapshot(snap domain.Snapshot) (*Service, error) {
	s := New()

	for id, account := range snap.Accounts {
		for currency, amount := range account.Balances {
			if amount < 0 {
				return nil, fmt.Errorf("%w: account %s holds negative %s balance", domain.ErrStorage, id, currency)
			}
		}

		restored := copyAccount(&account)
		restored.ID = id
		s.accounts[id] = &restored
	}

	var prev uint64

	for _, tx := range snap.Transactions {
		if tx.Sequence <= prev {
			return nil, fmt.Errorf("%w: transaction log is not strictly ordered at sequence %d", domain.ErrStorage, tx.Sequence)
		}

		prev = tx.Sequence

		if tx.IdempotencyKey != "" {
			if _, ok := s.idempotency[tx.IdempotencyKey]; !ok {
				s.idempotency[tx.IdempotencyKey] = tx
			}
		}
	}

	if prev > snap.Sequence {
		return nil, fmt.Errorf("%w: sequence counter %d behind transaction log", domain.ErrStorage, snap.Sequence)
	}

	s.transactions = append(s.transactions, snap.Transactions...)
	s.sequence = snap.Sequence

	return s, nil
}

// CreateAccount mints a new account. A strictly positive initial amount
// is recorded under the given currency; a zero amount leaves the
// account with no balance entries. Account creation never touches the
// transaction log or the idempotency index.
func (s *Service) CreateAccount(ctx context.Context, initial domain.Money) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if !currencypkg.IsValid(initial.Currency) {
		l.Info().Err(domain.ErrInvalidCurrency).Send()
		return domain.Account{}, domain.ErrInvalidCurrency
	}

	if initial.Amount < 0 {
		l.Info().Err(domain.ErrInvalidAmount).Send()
		return domain.Account{}, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account := &domain.Account{
		ID:        idpkg.New(),
		CreatedAt: time.Now().UTC(),
		Balances:  make(map[string]int64),
	}

	if initial.Amount > 0 {
		account.Balances[initial.Currency] = initial.Amount
	}

	s.accounts[account.ID] = account

	return copyAccount(account), nil
}

// GetAccount returns a snapshot of the account with the given ID.
func (s *Service) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return copyAccount(account), nil
}

// GetBalance returns the account's balance in the given currency.
// A currency the account never held reads as zero; only a missing
// account is an error.
func (s *Service) GetBalance(ctx context.Context, id, currency string) (domain.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return domain.Money{}, domain.ErrAccountNotFound
	}

	return domain.Money{Currency: currency, Amount: account.Balances[currency]}, nil
}

// Transfer atomically moves amount from one account to another and
// appends the committed transaction to the log.
//
// A non-empty idempotencyKey deduplicates retries: the first transfer
// committed under a key wins, and any later submission with the same
// key returns that original transaction untouched, even when its
// amount or accounts differ. The key check and the commit share one
// critical section, so two racing submissions of the same key cannot
// both apply.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount domain.Money, idempotencyKey string) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	if !currencypkg.IsValid(amount.Currency) {
		l.Info().Err(domain.ErrInvalidCurrency).Send()
		return domain.Transaction{}, domain.ErrInvalidCurrency
	}

	if !amount.IsPositive() {
		l.Info().Err(domain.ErrInvalidAmount).Send()
		return domain.Transaction{}, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if tx, ok := s.idempotency[idempotencyKey]; ok {
			return tx, nil
		}
	}

	from, ok := s.accounts[fromID]
	if !ok {
		return domain.Transaction{}, domain.ErrAccountNotFound
	}

	to, ok := s.accounts[toID]
	if !ok {
		return domain.Transaction{}, domain.ErrAccountNotFound
	}

	if from.Balances[amount.Currency] < amount.Amount {
		return domain.Transaction{}, domain.ErrInsufficientFunds
	}

	// Self-transfer nets to zero but still commits a log entry.
	from.Balances[amount.Currency] -= amount.Amount
	to.Balances[amount.Currency] += amount.Amount

	s.sequence++

	tx := domain.Transaction{
		ID:             idpkg.New(),
		CreatedAt:      time.Now().UTC(),
		FromAccountID:  fromID,
		ToAccountID:    toID,
		Currency:       amount.Currency,
		Amount:         amount.Amount,
		IdempotencyKey: idempotencyKey,
		Sequence:       s.sequence,
	}

	s.transactions = append(s.transactions, tx)

	if idempotencyKey != "" {
		s.idempotency[idempotencyKey] = tx
	}

	return tx, nil
}

// ListTransactions returns up to limit transactions with sequence
// strictly greater than afterSequence, in ascending sequence order,
// together with the cursor for the next page. The cursor is the last
// returned sequence, or zero when the page is empty.
//
// A limit of zero or above 1000 is replaced with the default page size
// of 100.
func (s *Service) ListTransactions(ctx context.Context, limit int, afterSequence uint64) ([]domain.Transaction, uint64, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		page []domain.Transaction
		next uint64
	)

	// The log is sorted by sequence by construction.
	for _, tx := range s.transactions {
		if tx.Sequence <= afterSequence {
			continue
		}

		page = append(page, tx)
		next = tx.Sequence

		if len(page) >= limit {
			break
		}
	}

	return page, next, nil
}

// AccountCount returns the current number of accounts.
func (s *Service) AccountCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.accounts)
}

// Snapshot returns a deep copy of the whole ledger state for
// persistence.
func (s *Service) Snapshot(ctx context.Context) domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.Snapshot{
		Accounts:     make(map[string]domain.Account, len(s.accounts)),
		Transactions: make([]domain.Transaction, len(s.transactions)),
		Sequence:     s.sequence,
	}

	for id, account := range s.accounts {
		snap.Accounts[id] = copyAccount(account)
	}

	copy(snap.Transactions, s.transactions)

	return snap
}

// copyAccount returns a snapshot that does not alias engine state.
func copyAccount(account *domain.Account) domain.Account {
	out := *account
	out.Balances = make(map[string]int64, len(account.Balances))

	for currency, amount := range account.Balances {
		out.Balances[currency] = amount
	}

	return out
}
