package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds the balance of one user in one currency
type Account struct {
	ID         uuid.UUID       `json:"accountId"`
	UserID     int64           `json:"userId"`
	CurrencyID int64           `json:"currencyId"`
	Balance    decimal.Decimal `json:"balance"` // never negative once committed
}
