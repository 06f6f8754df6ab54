package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account types accepted by the API.
const (
	AccountTypeCash = "Cash"
	AccountTypeBank = "Bank"
)

// Account is a financial account owned by one user. Balance is a cached
// running total: base value plus the signed sum of the account's transactions.
// Only the balance service and the absolute override on account update may
// write it.
type Account struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"-" db:"user_id"`
	Name        string          `json:"name" db:"name"`
	AccountType string          `json:"accountType" db:"account_type"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// AccountCreateRequest is the payload for creating an account.
type AccountCreateRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	AccountType string          `json:"accountType" validate:"required,max=50,oneof=Cash Bank"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountUpdateRequest overwrites name, type and balance. The balance here is
// an absolute override, not a delta.
type AccountUpdateRequest struct {
	ID          uuid.UUID       `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required,max=100"`
	AccountType string          `json:"accountType" validate:"required,max=50,oneof=Cash Bank"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountDto is the API representation of an account.
type AccountDto struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	AccountType string          `json:"accountType"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"createdAt"`
}
