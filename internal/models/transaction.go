package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operation types derived from the transaction amount's sign. The label is
// computed per response and never stored.
const (
	OperationTypeIncome  = "Income"
	OperationTypeExpense = "Expense"
)

func init() {
	// Amounts and balances serialize as JSON numbers for the SPA client.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction is a single signed movement on an account. Positive amounts are
// income, negative amounts are expenses. Ownership is transitive through the
// account's owner.
type Transaction struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	AccountID  uuid.UUID       `json:"accountId" db:"account_id"`
	CategoryID uuid.UUID       `json:"categoryId" db:"category_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Timestamp  time.Time       `json:"timestamp" db:"timestamp"`
	Notes      string          `json:"notes" db:"notes"`
}

// TransactionCreateRequest is the payload for recording a transaction.
// Amount sign and magnitude rules are checked by the transaction service
// since validator tags cannot express decimal bounds.
type TransactionCreateRequest struct {
	AccountID  uuid.UUID       `json:"accountId" validate:"required"`
	CategoryID uuid.UUID       `json:"categoryId" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  time.Time       `json:"timestamp" validate:"required"`
	Notes      string          `json:"notes" validate:"max=500"`
}

// TransactionUpdateRequest overwrites all mutable fields of a transaction.
type TransactionUpdateRequest struct {
	ID         uuid.UUID       `json:"id" validate:"required"`
	AccountID  uuid.UUID       `json:"accountId" validate:"required"`
	CategoryID uuid.UUID       `json:"categoryId" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  time.Time       `json:"timestamp" validate:"required"`
	Notes      string          `json:"notes" validate:"max=500"`
}

// TransactionDto is the API representation of a transaction.
type TransactionDto struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	CategoryID    uuid.UUID       `json:"categoryId"`
	Notes         string          `json:"notes"`
	OperationType string          `json:"operationType"`
}

// OperationTypeFor labels an amount: Income when zero or positive, Expense
// when negative.
func OperationTypeFor(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return OperationTypeExpense
	}
	return OperationTypeIncome
}
