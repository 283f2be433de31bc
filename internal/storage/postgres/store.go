package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	interfaces "github.com/sheikh-saqib/currency-ledger/internal/interfaces"
	"github.com/sheikh-saqib/currency-ledger/internal/models"
	"github.com/shopspring/decimal"
)

const foreignKeyViolation = "23503"

const (
	insertUserQuery     = `INSERT INTO users (name) VALUES ($1) RETURNING id`
	insertCurrencyQuery = `INSERT INTO currencies (name) VALUES ($1) RETURNING id`
	userExistsQuery     = `SELECT 1 FROM users WHERE id = $1`

	selectAccountQuery = `SELECT id, user_id, currency_id, sum FROM accounts
	WHERE user_id = $1 AND currency_id = $2`

	lockAccountQuery = selectAccountQuery + ` FOR UPDATE`

	listAccountsQuery = `SELECT id, user_id, currency_id, sum FROM accounts
	WHERE user_id = $1 ORDER BY currency_id`

	insertAccountQuery = `INSERT INTO accounts (id, user_id, currency_id, sum)
	VALUES ($1, $2, $3, 0) ON CONFLICT (user_id, currency_id) DO NOTHING`

	updateBalanceQuery = `UPDATE accounts SET sum = $1 WHERE id = $2`
)

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// Open connects to postgres through lib/pq and checks the connection
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (p *PostgresLedgerStore) CreateUser(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := p.db.QueryRowContext(ctx, insertUserQuery, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (p *PostgresLedgerStore) CreateCurrency(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := p.db.QueryRowContext(ctx, insertCurrencyQuery, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert currency: %w", err)
	}
	return id, nil
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, userID, currencyID int64) (models.Account, error) {
	account, err := scanAccount(p.db.QueryRowContext(ctx, selectAccountQuery, userID, currencyID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, fmt.Errorf("account (user %d, currency %d): %w", userID, currencyID, interfaces.ErrNotFound)
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("select account: %w", err)
	}
	return account, nil
}

func (p *PostgresLedgerStore) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	var exists int
	err := p.db.QueryRowContext(ctx, userExistsQuery, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, listAccountsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// WithinTx runs fn inside a database transaction. database/sql rolls the
// transaction back by itself when ctx is cancelled before Commit.
func (p *PostgresLedgerStore) WithinTx(ctx context.Context, fn func(tx interfaces.AccountTx) error) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = fn(&postgresTx{tx: dbTx}); err != nil {
		return err
	}

	if err = dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type postgresTx struct {
	tx *sql.Tx
}

// LockAccount takes a row lock on the account, inserting the row first when it
// does not exist yet. ON CONFLICT covers a concurrent insert of the same pair.
func (t *postgresTx) LockAccount(ctx context.Context, userID, currencyID int64) (models.Account, error) {
	account, err := scanAccount(t.tx.QueryRowContext(ctx, lockAccountQuery, userID, currencyID))
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, err
	}

	if _, err := t.tx.ExecContext(ctx, insertAccountQuery, uuid.New(), userID, currencyID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return models.Account{}, fmt.Errorf("user %d or currency %d: %w", userID, currencyID, interfaces.ErrNotFound)
		}
		return models.Account{}, fmt.Errorf("insert account: %w", err)
	}

	return scanAccount(t.tx.QueryRowContext(ctx, lockAccountQuery, userID, currencyID))
}

func (t *postgresTx) UpdateBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx, updateBalanceQuery, balance, accountID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("account %s: %w", accountID, interfaces.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.UserID, &account.CurrencyID, &account.Balance)
	return account, err
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
