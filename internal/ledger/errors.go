package ledger

import (
	"fmt"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/currency-ledger/internal/interfaces"
)

// ErrNotFound is returned when a referenced user, currency or account does not exist
var ErrNotFound = interfaces.ErrNotFound

// InsufficientFundsError reports the account whose balance would have gone negative
type InsufficientFundsError struct {
	AccountID uuid.UUID
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds on account %s", e.AccountID)
}
