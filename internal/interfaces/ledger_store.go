package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/currency-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerStore persists users, currencies and accounts.
// Balance mutations only happen inside WithinTx.
type LedgerStore interface {
	CreateUser(ctx context.Context, name string) (int64, error)
	CreateCurrency(ctx context.Context, name string) (int64, error)
	GetAccount(ctx context.Context, userID, currencyID int64) (models.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]models.Account, error)

	// WithinTx runs fn in a single unit of work. It commits when fn returns nil
	// and rolls back on any error or when ctx is done before commit.
	WithinTx(ctx context.Context, fn func(tx AccountTx) error) error
}

// AccountTx is the view of the store available inside a unit of work
type AccountTx interface {
	// LockAccount returns the account for the pair, inserting it with a zero
	// balance when absent. Concurrent units of work touching the same pair
	// wait until this one ends.
	LockAccount(ctx context.Context, userID, currencyID int64) (models.Account, error)
	UpdateBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error
}
