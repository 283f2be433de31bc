package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sheikh-saqib/currency-ledger/internal/ledger"
	"github.com/sheikh-saqib/currency-ledger/internal/models"
	"github.com/sheikh-saqib/currency-ledger/internal/storage/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newLedger connects to DATABASE_URL and migrates it; without one the test is skipped
func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.Migrate(db, zap.NewNop()))

	return ledger.NewLedger(postgres.NewPostgresLedgerStore(db))
}

func TestPostgres_ConcurrentTopUpsOfOnePairAreSerialised(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	const n = 50

	// fresh user and currency, so every goroutine races on opening the account too
	suffix := time.Now().UnixNano()
	userID, err := l.AddUser(ctx, models.AddUserRequest{Name: fmt.Sprintf("concurrent-%d", suffix)})
	require.NoError(t, err)
	currencyID, err := l.AddCurrency(ctx, models.AddCurrencyRequest{Name: fmt.Sprintf("C%d", suffix)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.TopUp(ctx, models.TopUpRequest{
				UserID:     userID,
				CurrencyID: currencyID,
				Sum:        decimal.NewFromInt(1),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	account, err := l.GetBalance(ctx, userID, currencyID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(n)), "want %d, got %s", n, account.Balance)

	accounts, err := l.ListAccounts(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestPostgres_ConcurrentConvertsNeverOverdraw(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	const n = 20

	suffix := time.Now().UnixNano()
	userID, err := l.AddUser(ctx, models.AddUserRequest{Name: fmt.Sprintf("converter-%d", suffix)})
	require.NoError(t, err)
	from, err := l.AddCurrency(ctx, models.AddCurrencyRequest{Name: fmt.Sprintf("F%d", suffix)})
	require.NoError(t, err)
	to, err := l.AddCurrency(ctx, models.AddCurrencyRequest{Name: fmt.Sprintf("T%d", suffix)})
	require.NoError(t, err)

	_, err = l.TopUp(ctx, models.TopUpRequest{UserID: userID, CurrencyID: from, Sum: decimal.NewFromInt(10)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Convert(ctx, models.ConvertRequest{
				UserID:         userID,
				CurrencyIDFrom: from,
				CurrencyIDTo:   to,
				SumFrom:        decimal.NewFromInt(1),
				Rate:           decimal.NewFromInt(1),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)

	account, err := l.GetBalance(ctx, userID, from)
	require.NoError(t, err)
	assert.True(t, account.Balance.IsZero(), account.Balance.String())
}
