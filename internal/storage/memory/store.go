package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/currency-ledger/internal/interfaces"
	"github.com/sheikh-saqib/currency-ledger/internal/models"
	"github.com/shopspring/decimal"
)

type accountKey struct {
	userID     int64
	currencyID int64
}

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// Units of work run one at a time; their writes are staged and only become
// visible on commit.
type MemoryLedgerStore struct {
	mu             sync.Mutex // held for the whole of a unit of work
	users          map[int64]models.User
	currencies     map[int64]models.Currency
	accounts       map[accountKey]models.Account
	nextUserID     int64
	nextCurrencyID int64
}

// NewMemoryLedgerStore creates and returns an empty MemoryLedgerStore
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		users:      make(map[int64]models.User),
		currencies: make(map[int64]models.Currency),
		accounts:   make(map[accountKey]models.Account),
	}
}

func (m *MemoryLedgerStore) CreateUser(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextUserID++
	m.users[m.nextUserID] = models.User{ID: m.nextUserID, Name: name}
	return m.nextUserID, nil
}

func (m *MemoryLedgerStore) CreateCurrency(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextCurrencyID++
	m.currencies[m.nextCurrencyID] = models.Currency{ID: m.nextCurrencyID, Name: name}
	return m.nextCurrencyID, nil
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, userID, currencyID int64) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[accountKey{userID: userID, currencyID: currencyID}]
	if !ok {
		return models.Account{}, fmt.Errorf("account (user %d, currency %d): %w", userID, currencyID, interfaces.ErrNotFound)
	}
	return account, nil
}

// ListAccounts returns the user's accounts ordered by currency
func (m *MemoryLedgerStore) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return nil, fmt.Errorf("user %d: %w", userID, interfaces.ErrNotFound)
	}

	result := make([]models.Account, 0)
	for key, account := range m.accounts {
		if key.userID == userID {
			result = append(result, account)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CurrencyID < result[j].CurrencyID })
	return result, nil
}

func (m *MemoryLedgerStore) WithinTx(ctx context.Context, fn func(tx interfaces.AccountTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{store: m, staged: make(map[accountKey]models.Account)}
	if err := fn(tx); err != nil {
		return err
	}

	// cancelled before commit: drop the staged writes
	if err := ctx.Err(); err != nil {
		return err
	}

	for key, account := range tx.staged {
		m.accounts[key] = account
	}
	return nil
}

// memoryTx stages account writes until the owning unit of work commits.
// The store mutex is held by WithinTx for the lifetime of a memoryTx.
type memoryTx struct {
	store  *MemoryLedgerStore
	staged map[accountKey]models.Account
}

func (t *memoryTx) LockAccount(ctx context.Context, userID, currencyID int64) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}

	key := accountKey{userID: userID, currencyID: currencyID}
	if account, ok := t.staged[key]; ok {
		return account, nil
	}
	if account, ok := t.store.accounts[key]; ok {
		t.staged[key] = account
		return account, nil
	}

	if _, ok := t.store.users[userID]; !ok {
		return models.Account{}, fmt.Errorf("user %d: %w", userID, interfaces.ErrNotFound)
	}
	if _, ok := t.store.currencies[currencyID]; !ok {
		return models.Account{}, fmt.Errorf("currency %d: %w", currencyID, interfaces.ErrNotFound)
	}

	account := models.Account{
		ID:         uuid.New(),
		UserID:     userID,
		CurrencyID: currencyID,
		Balance:    decimal.Zero,
	}
	t.staged[key] = account
	return account, nil
}

func (t *memoryTx) UpdateBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for key, account := range t.staged {
		if account.ID == accountID {
			account.Balance = balance
			t.staged[key] = account
			return nil
		}
	}
	return fmt.Errorf("account %s is not locked in this transaction: %w", accountID, interfaces.ErrNotFound)
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
