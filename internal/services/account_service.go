package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fintrack/backend/internal/models"
)

const msgAccountDenied = "The account does not exist or you do not have permission to modify it."

// AccountService handles account CRUD. All reads and writes are scoped to the
// authenticated user.
type AccountService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// CreateAccount opens a new account with the given starting balance
// @Summary Create an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body models.AccountCreateRequest true "Account data"
// @Success 201 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts [post]
func (as *AccountService) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.AccountCreateRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	accountID := uuid.New()
	_, err := as.db.ExecContext(r.Context(), `
        INSERT INTO accounts (id, user_id, name, account_type, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, accountID, userID, req.Name, req.AccountType, req.Balance, time.Now().UTC())
	if err != nil {
		log.Printf("[ACCOUNT] Failed to create account for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[ACCOUNT] Created %s for user %s", accountID, userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": accountID.String()})
}

// UpdateAccount overwrites an account's name, type and balance. The balance in
// the payload replaces the stored value outright
// @Summary Update an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body models.AccountUpdateRequest true "Account data"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts [put]
func (as *AccountService) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.AccountUpdateRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := as.db.ExecContext(r.Context(), `
        UPDATE accounts
        SET name = $1, account_type = $2, balance = $3
        WHERE id = $4 AND user_id = $5
    `, req.Name, req.AccountType, req.Balance, req.ID, userID)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to update account %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("[ACCOUNT] Failed to update account %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}
	if rowsAffected == 0 {
		log.Printf("[ACCOUNT] Update denied, %s not found or not owned by user %s", req.ID, userID)
		SendErrorResponse(w, msgAccountDenied, http.StatusBadRequest, nil)
		return
	}

	log.Printf("[ACCOUNT] Updated %s for user %s", req.ID, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Account updated"})
}

// ListAccounts returns the caller's accounts
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Success 200 {array} models.AccountDto
// @Failure 500 {object} ErrorResponse
// @Router /accounts [get]
func (as *AccountService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := as.db.QueryContext(r.Context(), `
        SELECT id, name, account_type, balance, created_at
        FROM accounts
        WHERE user_id = $1
        ORDER BY created_at
    `, userID)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to fetch accounts for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []models.AccountDto{}
	for rows.Next() {
		var dto models.AccountDto
		if err := rows.Scan(&dto.ID, &dto.Name, &dto.AccountType, &dto.Balance, &dto.CreatedAt); err != nil {
			log.Printf("[ACCOUNT] Failed to scan account row: %v", err)
			SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
			return
		}
		accounts = append(accounts, dto)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[ACCOUNT] Failed to read accounts for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

// DeleteAccount removes an account. Its transactions go with it through the
// storage-level cascade
// @Summary Delete an account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts/{id} [delete]
func (as *AccountService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	result, err := as.db.ExecContext(r.Context(), `
        DELETE FROM accounts WHERE id = $1 AND user_id = $2
    `, accountID, userID)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to delete account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("[ACCOUNT] Failed to delete account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}
	if rowsAffected == 0 {
		log.Printf("[ACCOUNT] Delete denied, %s not found or not owned by user %s", accountID, userID)
		SendErrorResponse(w, msgAccountDenied, http.StatusBadRequest, nil)
		return
	}

	log.Printf("[ACCOUNT] Deleted %s for user %s", accountID, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Account deleted"})
}
