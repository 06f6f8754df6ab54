package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceService is the only writer of the cached account balance outside the
// absolute override on account update. Deltas are applied with a storage-side
// increment so concurrent writers on the same account cannot lose updates.
type BalanceService struct {
	db *sql.DB
}

func NewBalanceService(db *sql.DB) *BalanceService {
	return &BalanceService{db: db}
}

// ApplyDelta adds a signed delta to one account's balance. Balances may go
// negative; there is no clamp. Returns false when the account row no longer
// exists, which callers treat as "nothing to update" rather than a failure.
func (s *BalanceService) ApplyDelta(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
        UPDATE accounts SET balance = balance + $1 WHERE id = $2
    `, delta, accountID)

	if err != nil {
		return false, fmt.Errorf("apply balance delta: %w", err)
	}

	return s.checkApplied(result, accountID, delta)
}

// ApplyDeltaTx applies the same increment inside an existing database
// transaction, keeping the row write and the rebalance a single atomic unit.
func (s *BalanceService) ApplyDeltaTx(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, delta decimal.Decimal) (bool, error) {
	result, err := tx.ExecContext(ctx, `
        UPDATE accounts SET balance = balance + $1 WHERE id = $2
    `, delta, accountID)

	if err != nil {
		return false, fmt.Errorf("apply balance delta: %w", err)
	}

	return s.checkApplied(result, accountID, delta)
}

func (s *BalanceService) checkApplied(result sql.Result, accountID uuid.UUID, delta decimal.Decimal) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply balance delta: %w", err)
	}

	if rowsAffected == 0 {
		log.Printf("[BALANCE] Account %s missing, delta %s not applied", accountID, delta)
		return false, nil
	}

	return true, nil
}
