package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/models"
)

// Collapsed ownership/not-found message. Missing ids and ids owned by another
// user must be indistinguishable to the caller.
const (
	msgAccountOrCategoryDenied = "The specified account or category does not exist or you do not have permission to use it."
	msgTransactionDenied       = "The transaction does not exist or you do not have permission to modify it."
)

// Smallest legal transaction magnitude: one penny.
var minTransactionAmount = decimal.New(1, -2)

// TransactionService coordinates every transaction write. Each mutation runs
// the same pipeline: validate input, check ownership, then mutate the row and
// rebalance the owning account inside a single database transaction so the
// balance invariant holds even under failure.
type TransactionService struct {
	db        *sql.DB
	ownership *OwnershipValidator
	balance   *BalanceService
	validator *ValidationHelper
}

func NewTransactionService(db *sql.DB, ownership *OwnershipValidator, balance *BalanceService) *TransactionService {
	return &TransactionService{
		db:        db,
		ownership: ownership,
		balance:   balance,
		validator: NewValidationHelper(),
	}
}

// CreateTransaction records a new transaction and credits its amount to the
// owning account's balance
// @Summary Create a transaction
// @Description Record a transaction and adjust the account balance by its amount
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body models.TransactionCreateRequest true "Transaction data"
// @Success 201 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions [post]
func (ts *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.TransactionCreateRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := validateAmount(req.Amount); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	log.Printf("[TRANSACTION] Create request, amount %s for user %s", req.Amount, userID)

	// Both ownership checks run before any write so a rejected request
	// leaves no partial state.
	if !ts.checkOwnership(w, r, req.AccountID, req.CategoryID, userID) {
		return
	}

	ctx := r.Context()
	dbTx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	transactionID := uuid.New()
	_, err = dbTx.ExecContext(ctx, `
        INSERT INTO transactions (id, account_id, category_id, amount, timestamp, notes)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, transactionID, req.AccountID, req.CategoryID, req.Amount, req.Timestamp, req.Notes)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to store transaction: %v", err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	if _, err := ts.balance.ApplyDeltaTx(ctx, dbTx, req.AccountID, req.Amount); err != nil {
		log.Printf("[TRANSACTION] Failed to apply balance delta: %v", err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[TRANSACTION] Failed to commit transaction: %v", err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[TRANSACTION] Created %s for user %s", transactionID, userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": transactionID.String()})
}

// UpdateTransaction overwrites a transaction's mutable fields and rebalances
// the affected account(s)
// @Summary Update a transaction
// @Description Overwrite a transaction and adjust balances by the amount difference
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body models.TransactionUpdateRequest true "Transaction data"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions [put]
func (ts *TransactionService) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.TransactionUpdateRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := validateAmount(req.Amount); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	log.Printf("[TRANSACTION] Update request for %s by user %s", req.ID, userID)

	if !ts.checkOwnership(w, r, req.AccountID, req.CategoryID, userID) {
		return
	}

	ctx := r.Context()
	dbTx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	// Ownership of the stored transaction is checked through its current
	// account, not the requested one, so a caller cannot take over another
	// user's transaction by guessing its id. The row lock holds the amount
	// stable until the rebalance commits.
	var oldAccountID uuid.UUID
	var oldAmount decimal.Decimal
	err = dbTx.QueryRowContext(ctx, `
        SELECT t.account_id, t.amount
        FROM transactions t
        INNER JOIN accounts a ON t.account_id = a.id
        WHERE t.id = $1 AND a.user_id = $2
        FOR UPDATE OF t
    `, req.ID, userID).Scan(&oldAccountID, &oldAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[TRANSACTION] Update denied, %s not found or not owned by user %s", req.ID, userID)
			SendErrorResponse(w, msgTransactionDenied, http.StatusBadRequest, nil)
			return
		}
		log.Printf("[TRANSACTION] Failed to load transaction %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		return
	}

	_, err = dbTx.ExecContext(ctx, `
        UPDATE transactions
        SET account_id = $1, category_id = $2, amount = $3, timestamp = $4, notes = $5
        WHERE id = $6
    `, req.AccountID, req.CategoryID, req.Amount, req.Timestamp, req.Notes, req.ID)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to update transaction %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		return
	}

	if oldAccountID == req.AccountID {
		// Same account: the delta is against the immediately-prior stored
		// amount, not the original one.
		if _, err := ts.balance.ApplyDeltaTx(ctx, dbTx, req.AccountID, req.Amount.Sub(oldAmount)); err != nil {
			log.Printf("[TRANSACTION] Failed to apply balance delta: %v", err)
			SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
			return
		}
	} else {
		// Moving between accounts: reverse the old amount on the old account
		// and apply the full new amount on the new one, so neither balance
		// keeps a transaction it no longer has.
		if _, err := ts.balance.ApplyDeltaTx(ctx, dbTx, oldAccountID, oldAmount.Neg()); err != nil {
			log.Printf("[TRANSACTION] Failed to reverse balance on old account: %v", err)
			SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
			return
		}
		if _, err := ts.balance.ApplyDeltaTx(ctx, dbTx, req.AccountID, req.Amount); err != nil {
			log.Printf("[TRANSACTION] Failed to apply balance on new account: %v", err)
			SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
			return
		}
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[TRANSACTION] Failed to commit update of %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[TRANSACTION] Updated %s for user %s", req.ID, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Transaction updated"})
}

// DeleteTransaction removes a transaction and reverses its effect on the
// account balance
// @Summary Delete a transaction
// @Description Remove a transaction and subtract its amount from the account balance
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions/{id} [delete]
func (ts *TransactionService) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	transactionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid transaction id", http.StatusBadRequest, nil)
		return
	}

	log.Printf("[TRANSACTION] Delete request for %s by user %s", transactionID, userID)

	ctx := r.Context()
	dbTx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	var accountID uuid.UUID
	var amount decimal.Decimal
	err = dbTx.QueryRowContext(ctx, `
        SELECT t.account_id, t.amount
        FROM transactions t
        INNER JOIN accounts a ON t.account_id = a.id
        WHERE t.id = $1 AND a.user_id = $2
        FOR UPDATE OF t
    `, transactionID, userID).Scan(&accountID, &amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[TRANSACTION] Delete denied, %s not found or not owned by user %s", transactionID, userID)
			SendErrorResponse(w, msgTransactionDenied, http.StatusBadRequest, nil)
			return
		}
		log.Printf("[TRANSACTION] Failed to load transaction %s: %v", transactionID, err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID); err != nil {
		log.Printf("[TRANSACTION] Failed to delete transaction %s: %v", transactionID, err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	if _, err := ts.balance.ApplyDeltaTx(ctx, dbTx, accountID, amount.Neg()); err != nil {
		log.Printf("[TRANSACTION] Failed to reverse balance delta: %v", err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[TRANSACTION] Failed to commit delete of %s: %v", transactionID, err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[TRANSACTION] Deleted %s for user %s", transactionID, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Transaction deleted"})
}

// ListTransactions returns every transaction whose account belongs to the
// caller
// @Summary List transactions
// @Description Get all transactions owned by the authenticated user
// @Tags transactions
// @Produce json
// @Success 200 {array} models.TransactionDto
// @Failure 500 {object} ErrorResponse
// @Router /transactions [get]
func (ts *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := ts.db.QueryContext(r.Context(), `
        SELECT t.id, t.account_id, t.amount, t.timestamp, t.category_id, COALESCE(t.notes, '')
        FROM transactions t
        INNER JOIN accounts a ON t.account_id = a.id
        WHERE a.user_id = $1
        ORDER BY t.timestamp DESC
    `, userID)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to fetch transactions for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.TransactionDto{}
	for rows.Next() {
		var dto models.TransactionDto
		if err := rows.Scan(&dto.ID, &dto.AccountID, &dto.Amount, &dto.Timestamp, &dto.CategoryID, &dto.Notes); err != nil {
			log.Printf("[TRANSACTION] Failed to scan transaction row: %v", err)
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		dto.OperationType = models.OperationTypeFor(dto.Amount)
		transactions = append(transactions, dto)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[TRANSACTION] Failed to read transactions for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

// checkOwnership runs both write preconditions and reports the collapsed
// failure to the client when either fails.
func (ts *TransactionService) checkOwnership(w http.ResponseWriter, r *http.Request, accountID, categoryID, userID uuid.UUID) bool {
	ctx := r.Context()

	owned, err := ts.ownership.ValidateAccountOwnership(ctx, accountID, userID)
	if err != nil {
		log.Printf("[TRANSACTION] Account ownership check failed: %v", err)
		SendErrorResponse(w, "Failed to process transaction", http.StatusInternalServerError, nil)
		return false
	}
	if !owned {
		log.Printf("[TRANSACTION] Account %s not owned by user %s", accountID, userID)
		SendErrorResponse(w, msgAccountOrCategoryDenied, http.StatusBadRequest, nil)
		return false
	}

	owned, err = ts.ownership.ValidateCategoryOwnership(ctx, categoryID, userID)
	if err != nil {
		log.Printf("[TRANSACTION] Category ownership check failed: %v", err)
		SendErrorResponse(w, "Failed to process transaction", http.StatusInternalServerError, nil)
		return false
	}
	if !owned {
		log.Printf("[TRANSACTION] Category %s not owned by user %s", categoryID, userID)
		SendErrorResponse(w, msgAccountOrCategoryDenied, http.StatusBadRequest, nil)
		return false
	}

	return true
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return errors.New("Amount cannot be zero")
	}
	if amount.Abs().LessThan(minTransactionAmount) {
		return errors.New("Amount must be at least 0.01 in absolute value")
	}
	return nil
}
