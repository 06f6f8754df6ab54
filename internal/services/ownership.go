package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// OwnershipValidator answers whether an account or category belongs to a
// user. Both predicates are read-only and return the same false for a missing
// id and for an id owned by someone else, so callers cannot probe which ids
// exist.
type OwnershipValidator struct {
	db *sql.DB
}

func NewOwnershipValidator(db *sql.DB) *OwnershipValidator {
	return &OwnershipValidator{db: db}
}

// ValidateAccountOwnership reports whether an account row exists with the
// given id and owner. Errors are infrastructure failures only; "not found" is
// a false result, never an error.
func (v *OwnershipValidator) ValidateAccountOwnership(ctx context.Context, accountID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := v.db.QueryRowContext(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM accounts
            WHERE id = $1 AND user_id = $2
        )
    `, accountID, userID).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("account ownership check: %w", err)
	}

	return exists, nil
}

// ValidateCategoryOwnership is the category analogue of
// ValidateAccountOwnership.
func (v *OwnershipValidator) ValidateCategoryOwnership(ctx context.Context, categoryID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := v.db.QueryRowContext(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM categories
            WHERE id = $1 AND user_id = $2
        )
    `, categoryID, userID).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("category ownership check: %w", err)
	}

	return exists, nil
}
