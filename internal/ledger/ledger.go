package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/currency-ledger/internal/interfaces"
	"github.com/sheikh-saqib/currency-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultCommissionPercent applies when a conversion request carries no commission
const DefaultCommissionPercent = 0.05

var hundred = decimal.NewFromInt(100)

// Ledger applies balance operations on top of a LedgerStore.
// It holds no state of its own; every call re-reads balances through the store,
// which is responsible for serialising concurrent updates of the same account.
//
// Requests must be validated before they reach the Ledger.
type Ledger struct {
	store interfaces.LedgerStore
}

// NewLedger creates a Ledger backed by the given store (memory, postgres, ...)
func NewLedger(store interfaces.LedgerStore) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) AddUser(ctx context.Context, req models.AddUserRequest) (int64, error) {
	return l.store.CreateUser(ctx, req.Name)
}

func (l *Ledger) AddCurrency(ctx context.Context, req models.AddCurrencyRequest) (int64, error) {
	return l.store.CreateCurrency(ctx, req.Name)
}

// TopUp adds req.Sum to the user's account in req.CurrencyID, opening the
// account if needed, and returns the account ID.
func (l *Ledger) TopUp(ctx context.Context, req models.TopUpRequest) (uuid.UUID, error) {
	var accountID uuid.UUID

	err := l.store.WithinTx(ctx, func(tx interfaces.AccountTx) error {
		account, err := applyDelta(ctx, tx, req.UserID, req.CurrencyID, req.Sum)
		if err != nil {
			return err
		}
		accountID = account.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return accountID, nil
}

// Convert debits req.SumFrom from the "from" account and credits the converted
// amount minus commission to the "to" account. Both legs commit together or not at all.
func (l *Ledger) Convert(ctx context.Context, req models.ConvertRequest) (models.ConvertResult, error) {
	var result models.ConvertResult

	err := l.store.WithinTx(ctx, func(tx interfaces.AccountTx) error {
		from, err := applyDelta(ctx, tx, req.UserID, req.CurrencyIDFrom, req.SumFrom.Neg())
		if err != nil {
			return err
		}

		sumTo := ConvertedSum(req.SumFrom, req.Rate, req.CommissionPercent)

		to, err := applyDelta(ctx, tx, req.UserID, req.CurrencyIDTo, sumTo)
		if err != nil {
			return err
		}

		result = models.ConvertResult{
			BalanceFrom: from.Balance,
			BalanceTo:   to.Balance,
		}
		return nil
	})
	if err != nil {
		return models.ConvertResult{}, err
	}

	return result, nil
}

// ConvertedSum computes sumFrom * rate * (100 - commission) / 100.
// A nil commission means DefaultCommissionPercent.
func ConvertedSum(sumFrom, rate decimal.Decimal, commissionPercent *float64) decimal.Decimal {
	commission := decimal.NewFromFloat(DefaultCommissionPercent)
	if commissionPercent != nil {
		commission = decimal.NewFromFloat(*commissionPercent)
	}

	// Shift instead of Div: Div rounds to decimal.DivisionPrecision places
	return sumFrom.Mul(rate).Mul(hundred.Sub(commission)).Shift(-2)
}

// applyDelta locks (or opens) the account for the pair, adds delta and writes
// the new balance back. A negative result aborts the unit of work.
func applyDelta(ctx context.Context, tx interfaces.AccountTx, userID, currencyID int64, delta decimal.Decimal) (models.Account, error) {
	account, err := tx.LockAccount(ctx, userID, currencyID)
	if err != nil {
		return models.Account{}, fmt.Errorf("lock account (user %d, currency %d): %w", userID, currencyID, err)
	}

	account.Balance = account.Balance.Add(delta)
	if account.Balance.IsNegative() {
		return models.Account{}, &InsufficientFundsError{AccountID: account.ID}
	}

	if err := tx.UpdateBalance(ctx, account.ID, account.Balance); err != nil {
		return models.Account{}, fmt.Errorf("update balance of account %s: %w", account.ID, err)
	}

	return account, nil
}

// GetBalance returns the account of the user in the given currency
func (l *Ledger) GetBalance(ctx context.Context, userID, currencyID int64) (models.Account, error) {
	return l.store.GetAccount(ctx, userID, currencyID)
}

func (l *Ledger) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	accounts, err := l.store.ListAccounts(ctx, userID)
	if err != nil {
		return []models.Account{}, err
	}
	return accounts, nil
}
