package ledgerservice

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
)

func createAccount(t *testing.T, s *Service, currency string, amount int64) domain.Account {
	t.Helper()

	account, err := s.CreateAccount(context.Background(), domain.Money{Currency: currency, Amount: amount})
	require.NoError(t, err)

	return account
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		initial domain.Money
		wantErr error
	}{
		{
			name:    "OK",
			initial: domain.Money{Currency: "QZN", Amount: 1000},
		},
		{
			name:    "ZeroInitialAmount",
			initial: domain.Money{Currency: "QZN", Amount: 0},
		},
		{
			name:    "NegativeInitialAmount",
			initial: domain.Money{Currency: "QZN", Amount: -1},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "EmptyCurrency",
			initial: domain.Money{Currency: "", Amount: 100},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "WhitespaceCurrency",
			initial: domain.Money{Currency: "   ", Amount: 100},
			wantErr: domain.ErrInvalidCurrency,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			s := New()

			account, err := s.CreateAccount(ctx, tc.initial)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Zero(t, s.AccountCount(ctx))

				return
			}

			require.NoError(t, err)
			require.NotEmpty(t, account.ID)
			require.False(t, account.CreatedAt.IsZero())

			if tc.initial.Amount > 0 {
				require.Equal(t, map[string]int64{tc.initial.Currency: tc.initial.Amount}, account.Balances)
			} else {
				// A zero initial amount mints no balance entries.
				require.Empty(t, account.Balances)
			}

			got, err := s.GetAccount(ctx, account.ID)
			require.NoError(t, err)
			require.Equal(t, account, got)
		})
	}
}

func TestCreateAccountIDsAreSortable(t *testing.T) {
	s := New()

	first := createAccount(t, s, "QZN", 0)
	second := createAccount(t, s, "QZN", 0)

	require.NotEqual(t, first.ID, second.ID)
	require.Less(t, first.ID, second.ID)
}

func TestGetAccount(t *testing.T) {
	ctx := context.Background()
	s := New()

	account := createAccount(t, s, "QZN", 500)

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, account, got)

	_, err = s.GetAccount(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestGetAccountSnapshotDoesNotAliasState(t *testing.T) {
	ctx := context.Background()
	s := New()

	account := createAccount(t, s, "QZN", 500)

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)

	got.Balances["QZN"] = 0
	got.Balances["USD"] = 1_000_000

	balance, err := s.GetBalance(ctx, account.ID, "QZN")
	require.NoError(t, err)
	require.Equal(t, int64(500), balance.Amount)

	balance, err = s.GetBalance(ctx, account.ID, "USD")
	require.NoError(t, err)
	require.Zero(t, balance.Amount)
}

func TestGetBalance(t *testing.T) {
	ctx := context.Background()
	s := New()

	account := createAccount(t, s, "QZN", 1000)

	balance, err := s.GetBalance(ctx, account.ID, "QZN")
	require.NoError(t, err)
	require.Equal(t, domain.Money{Currency: "QZN", Amount: 1000}, balance)

	// A currency the account never held reads zero, not an error.
	balance, err = s.GetBalance(ctx, account.ID, "USD")
	require.NoError(t, err)
	require.Equal(t, domain.Money{Currency: "USD", Amount: 0}, balance)

	_, err = s.GetBalance(ctx, "missing", "QZN")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 1000)
	to := createAccount(t, s, "QZN", 0)

	tx, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 600}, "")
	require.NoError(t, err)

	require.NotEmpty(t, tx.ID)
	require.Equal(t, from.ID, tx.FromAccountID)
	require.Equal(t, to.ID, tx.ToAccountID)
	require.Equal(t, "QZN", tx.Currency)
	require.Equal(t, int64(600), tx.Amount)
	require.Equal(t, uint64(1), tx.Sequence)
	require.Empty(t, tx.IdempotencyKey)

	fromBalance, err := s.GetBalance(ctx, from.ID, "QZN")
	require.NoError(t, err)
	require.Equal(t, int64(400), fromBalance.Amount)

	toBalance, err := s.GetBalance(ctx, to.ID, "QZN")
	require.NoError(t, err)
	require.Equal(t, int64(600), toBalance.Amount)
}

func TestTransferRejections(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 100)
	to := createAccount(t, s, "QZN", 0)

	testCases := []struct {
		name    string
		fromID  string
		toID    string
		amount  domain.Money
		wantErr error
	}{
		{
			name:    "InsufficientFunds",
			fromID:  from.ID,
			toID:    to.ID,
			amount:  domain.Money{Currency: "QZN", Amount: 200},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "InsufficientFundsInUnheldCurrency",
			fromID:  from.ID,
			toID:    to.ID,
			amount:  domain.Money{Currency: "USD", Amount: 1},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "ZeroAmount",
			fromID:  from.ID,
			toID:    to.ID,
			amount:  domain.Money{Currency: "QZN", Amount: 0},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "NegativeAmount",
			fromID:  from.ID,
			toID:    to.ID,
			amount:  domain.Money{Currency: "QZN", Amount: -5},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "BlankCurrency",
			fromID:  from.ID,
			toID:    to.ID,
			amount:  domain.Money{Currency: " ", Amount: 100},
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "FromAccountMissing",
			fromID:  "missing",
			toID:    to.ID,
			amount:  domain.Money{Currency: "QZN", Amount: 100},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "ToAccountMissing",
			fromID:  from.ID,
			toID:    "missing",
			amount:  domain.Money{Currency: "QZN", Amount: 100},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "BothAccountsMissing",
			fromID:  "missing",
			toID:    "also-missing",
			amount:  domain.Money{Currency: "QZN", Amount: 100},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			before := s.Snapshot(ctx)

			_, err := s.Transfer(ctx, tc.fromID, tc.toID, tc.amount, randompkg.IdempotencyKey())
			require.ErrorIs(t, err, tc.wantErr)

			// A rejected transfer mutates nothing: not the balances,
			// not the log, not the sequence counter.
			after := s.Snapshot(ctx)
			require.Empty(t, cmp.Diff(before, after))
		})
	}
}

func TestTransferIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 1000)
	to := createAccount(t, s, "QZN", 0)

	tx1, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 200}, "k1")
	require.NoError(t, err)

	tx2, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 200}, "k1")
	require.NoError(t, err)

	require.Equal(t, tx1, tx2)

	fromBalance, err := s.GetBalance(ctx, from.ID, "QZN")
	require.NoError(t, err)
	require.Equal(t, int64(800), fromBalance.Amount)

	// Only the first submission consumed a sequence number.
	transactions, _, err := s.ListTransactions(ctx, 100, 0)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
}

func TestTransferMismatchedReplayReturnsOriginal(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 1000)
	to := createAccount(t, s, "QZN", 0)

	tx1, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 200}, "k1")
	require.NoError(t, err)

	before := s.Snapshot(ctx)

	// First use wins: a replay with a different amount and direction is
	// not validated against the original.
	tx2, err := s.Transfer(ctx, to.ID, from.ID, domain.Money{Currency: "QZN", Amount: 999}, "k1")
	require.NoError(t, err)
	require.Equal(t, tx1, tx2)

	after := s.Snapshot(ctx)
	require.Empty(t, cmp.Diff(before, after))
}

func TestTransferSelfTransfer(t *testing.T) {
	ctx := context.Background()
	s := New()

	account := createAccount(t, s, "QZN", 1000)

	tx, err := s.Transfer(ctx, account.ID, account.ID, domain.Money{Currency: "QZN", Amount: 300}, "")
	require.NoError(t, err)
	require.Equal(t, uint64(1), tx.Sequence)

	balance, err := s.GetBalance(ctx, account.ID, "QZN")
	require.NoError(t, err)
	require.Equal(t, int64(1000), balance.Amount)

	transactions, _, err := s.ListTransactions(ctx, 100, 0)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
}

func TestTransferConservation(t *testing.T) {
	ctx := context.Background()
	s := New()

	accounts := []domain.Account{
		createAccount(t, s, "QZN", 5000),
		createAccount(t, s, "QZN", 3000),
		createAccount(t, s, "QZN", 0),
	}

	total := func() int64 {
		var sum int64

		for _, account := range accounts {
			balance, err := s.GetBalance(ctx, account.ID, "QZN")
			require.NoError(t, err)
			sum += balance.Amount
		}

		return sum
	}

	require.Equal(t, int64(8000), total())

	for i := 0; i < 50; i++ {
		from := accounts[randompkg.Intn(len(accounts))]
		to := accounts[randompkg.Intn(len(accounts))]
		amount := domain.Money{Currency: "QZN", Amount: randompkg.Int64Between(1, 100)}

		if _, err := s.Transfer(ctx, from.ID, to.ID, amount, ""); err != nil {
			require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		}
	}

	require.Equal(t, int64(8000), total())
}

func TestTransferSequencesAreMonotonic(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 10_000)
	to := createAccount(t, s, "QZN", 0)

	var prev uint64

	for i := 0; i < 10; i++ {
		tx, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 100}, "")
		require.NoError(t, err)
		require.Greater(t, tx.Sequence, prev)
		prev = tx.Sequence
	}
}

func TestConcurrentTransfers(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 100_000)
	to := createAccount(t, s, "QZN", 0)

	const (
		workers   = 10
		transfers = 10
	)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < transfers; j++ {
				_, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 100}, "")
				require.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	fromBalance, err := s.GetBalance(ctx, from.ID, "QZN")
	require.NoError(t, err)

	toBalance, err := s.GetBalance(ctx, to.ID, "QZN")
	require.NoError(t, err)

	require.Equal(t, int64(100_000), fromBalance.Amount+toBalance.Amount)

	// All sequence numbers are assigned without gaps or duplicates and
	// the log is ordered by construction.
	transactions, _, err := s.ListTransactions(ctx, 1000, 0)
	require.NoError(t, err)
	require.Len(t, transactions, workers*transfers)

	for i, tx := range transactions {
		require.Equal(t, uint64(i+1), tx.Sequence)
	}
}

func TestConcurrentIdempotentSubmissions(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 1000)
	to := createAccount(t, s, "QZN", 0)

	const submissions = 20

	var wg sync.WaitGroup

	results := make([]domain.Transaction, submissions)

	for i := 0; i < submissions; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			tx, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 200}, "race-key")
			require.NoError(t, err)
			results[i] = tx
		}(i)
	}

	wg.Wait()

	for _, tx := range results {
		require.Equal(t, results[0].ID, tx.ID)
	}

	fromBalance, err := s.GetBalance(ctx, from.ID, "QZN")
	require.NoError(t, err)
	require.Equal(t, int64(800), fromBalance.Amount)
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 10_000)
	to := createAccount(t, s, "QZN", 0)

	for i := 0; i < 5; i++ {
		_, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 100}, "")
		require.NoError(t, err)
	}

	page, next, err := s.ListTransactions(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.Equal(t, []uint64{1, 2, 3}, sequences(page))
	require.Equal(t, uint64(3), next)

	page, next, err = s.ListTransactions(ctx, 3, next)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, []uint64{4, 5}, sequences(page))
	require.Equal(t, uint64(5), next)

	page, next, err = s.ListTransactions(ctx, 3, next)
	require.NoError(t, err)
	require.Empty(t, page)
	require.Zero(t, next)
}

func TestListTransactionsClampsLimit(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 100_000)
	to := createAccount(t, s, "QZN", 0)

	for i := 0; i < 150; i++ {
		_, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 1}, "")
		require.NoError(t, err)
	}

	testCases := []struct {
		name    string
		limit   int
		wantLen int
	}{
		{name: "ZeroLimitFallsBackToDefault", limit: 0, wantLen: 100},
		{name: "OversizedLimitFallsBackToDefault", limit: 1001, wantLen: 100},
		{name: "MaxLimitIsUsedAsIs", limit: 1000, wantLen: 150},
		{name: "SmallLimitIsUsedAsIs", limit: 7, wantLen: 7},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			page, _, err := s.ListTransactions(ctx, tc.limit, 0)
			require.NoError(t, err)
			require.Len(t, page, tc.wantLen)
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	from := createAccount(t, s, "QZN", 1000)
	to := createAccount(t, s, "QZN", 0)

	_, err := s.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 600}, "k1")
	require.NoError(t, err)

	restored, err := NewFromSnapshot(s.Snapshot(ctx))
	require.NoError(t, err)

	require.Empty(t, cmp.Diff(s.Snapshot(ctx), restored.Snapshot(ctx)))

	// The idempotency index survives via the transaction log.
	before := restored.Snapshot(ctx)

	tx, err := restored.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 600}, "k1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), tx.Sequence)
	require.Empty(t, cmp.Diff(before, restored.Snapshot(ctx)))

	// The next fresh transfer continues the sequence.
	tx, err = restored.Transfer(ctx, from.ID, to.ID, domain.Money{Currency: "QZN", Amount: 100}, "")
	require.NoError(t, err)
	require.Equal(t, uint64(2), tx.Sequence)
}

func TestNewFromSnapshotRejectsCorruptState(t *testing.T) {
	testCases := []struct {
		name string
		snap domain.Snapshot
	}{
		{
			name: "NegativeBalance",
			snap: domain.Snapshot{
				Accounts: map[string]domain.Account{
					"a": {ID: "a", Balances: map[string]int64{"QZN": -1}},
				},
			},
		},
		{
			name: "UnorderedLog",
			snap: domain.Snapshot{
				Transactions: []domain.Transaction{
					{ID: "t2", Sequence: 2},
					{ID: "t1", Sequence: 1},
				},
				Sequence: 2,
			},
		},
		{
			name: "DuplicateSequence",
			snap: domain.Snapshot{
				Transactions: []domain.Transaction{
					{ID: "t1", Sequence: 1},
					{ID: "t2", Sequence: 1},
				},
				Sequence: 1,
			},
		},
		{
			name: "CounterBehindLog",
			snap: domain.Snapshot{
				Transactions: []domain.Transaction{
					{ID: "t1", Sequence: 5},
				},
				Sequence: 3,
			},
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFromSnapshot(tc.snap)
			require.ErrorIs(t, err, domain.ErrStorage)
		})
	}
}

func sequences(transactions []domain.Transaction) []uint64 {
	out := make([]uint64, 0, len(transactions))

	for _, tx := range transactions {
		out = append(out, tx.Sequence)
	}

	return out
}
