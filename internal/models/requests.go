package models

import "github.com/shopspring/decimal"

// AddUserRequest registers a new user
type AddUserRequest struct {
	Name string `json:"name" validate:"required,max=250"`
}

// AddCurrencyRequest registers a new currency
type AddCurrencyRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// TopUpRequest credits Sum to the (UserID, CurrencyID) account
type TopUpRequest struct {
	UserID     int64           `json:"userId"`
	CurrencyID int64           `json:"currencyId"`
	Sum        decimal.Decimal `json:"sum" validate:"positive_decimal,decimal_bounds"`
}

// ConvertRequest moves SumFrom out of CurrencyIDFrom and credits the converted
// amount, minus commission, to CurrencyIDTo.
// CommissionPercent is optional; nil means the default commission applies.
type ConvertRequest struct {
	UserID            int64           `json:"userId"`
	CurrencyIDFrom    int64           `json:"currencyIdFrom"`
	CurrencyIDTo      int64           `json:"currencyIdTo"`
	SumFrom           decimal.Decimal `json:"sumFrom" validate:"positive_decimal,decimal_bounds"`
	Rate              decimal.Decimal `json:"rate" validate:"positive_decimal,decimal_bounds"`
	CommissionPercent *float64        `json:"commissionPercent,omitempty" validate:"omitnil,gt=0,lte=100"`
}

// ConvertResult carries the balances of both legs after a conversion
type ConvertResult struct {
	BalanceFrom decimal.Decimal `json:"balanceFrom"`
	BalanceTo   decimal.Decimal `json:"balanceTo"`
}
