package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicAccountToppedUp  = "account.topped_up"
	TopicAccountConverted = "account.converted"
)

// AccountToppedUp is published once a top-up has been committed
type AccountToppedUp struct {
	AccountID  string          `json:"account_id"`
	UserID     int64           `json:"user_id"`
	CurrencyID int64           `json:"currency_id"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// AccountConverted is published once both legs of a conversion have been committed
type AccountConverted struct {
	UserID         int64           `json:"user_id"`
	CurrencyIDFrom int64           `json:"currency_id_from"`
	CurrencyIDTo   int64           `json:"currency_id_to"`
	SumFrom        decimal.Decimal `json:"sum_from"`
	Rate           decimal.Decimal `json:"rate"`
	BalanceFrom    decimal.Decimal `json:"balance_from"`
	BalanceTo      decimal.Decimal `json:"balance_to"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
