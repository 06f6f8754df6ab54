package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAccountService_CreateAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)
	userID := uuid.New()

	t.Run("creates account with starting balance", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(sqlmock.AnyArg(), userID, "Checking", "Bank", decimal.RequireFromString("100.00"), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		body := `{"name":"Checking","accountType":"Bank","balance":100.00}`
		w := httptest.NewRecorder()
		service.CreateAccount(w, authedRequest("POST", "/accounts", body, userID))

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp map[string]string
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		_, err := uuid.Parse(resp["id"])
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account type rejected", func(t *testing.T) {
		body := `{"name":"Checking","accountType":"Crypto","balance":0}`
		w := httptest.NewRecorder()
		service.CreateAccount(w, authedRequest("POST", "/accounts", body, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		body := `{"name":"","accountType":"Cash","balance":0}`
		w := httptest.NewRecorder()
		service.CreateAccount(w, authedRequest("POST", "/accounts", body, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccountService_UpdateAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)
	userID := uuid.New()
	accountID := uuid.New()

	body := fmt.Sprintf(`{"id":%q,"name":"Savings","accountType":"Bank","balance":250.00}`, accountID)

	t.Run("balance in payload overrides the stored value", func(t *testing.T) {
		mock.ExpectExec(`UPDATE accounts\s*SET name = \$1, account_type = \$2, balance = \$3\s*WHERE id = \$4 AND user_id = \$5`).
			WithArgs("Savings", "Bank", decimal.RequireFromString("250.00"), accountID, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := httptest.NewRecorder()
		service.UpdateAccount(w, authedRequest("PUT", "/accounts", body, userID))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown or foreign account rejected", func(t *testing.T) {
		mock.ExpectExec(`UPDATE accounts\s*SET name = \$1, account_type = \$2, balance = \$3\s*WHERE id = \$4 AND user_id = \$5`).
			WithArgs("Savings", "Bank", decimal.RequireFromString("250.00"), accountID, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		w := httptest.NewRecorder()
		service.UpdateAccount(w, authedRequest("PUT", "/accounts", body, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, msgAccountDenied, resp.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService_ListAccounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)
	userID := uuid.New()

	t.Run("returns only the caller's accounts", func(t *testing.T) {
		firstID := uuid.New()
		secondID := uuid.New()

		mock.ExpectQuery(`SELECT id, name, account_type, balance, created_at\s*FROM accounts\s*WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "account_type", "balance", "created_at"}).
				AddRow(firstID.String(), "Wallet", "Cash", "35.50", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)).
				AddRow(secondID.String(), "Checking", "Bank", "-120.00", time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)))

		w := httptest.NewRecorder()
		service.ListAccounts(w, authedRequest("GET", "/accounts", "", userID))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp []map[string]any
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
		assert.Equal(t, "Wallet", resp[0]["name"])
		assert.Equal(t, float64(-120), resp[1]["balance"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no accounts yields empty list", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name, account_type, balance, created_at\s*FROM accounts\s*WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "account_type", "balance", "created_at"}))

		w := httptest.NewRecorder()
		service.ListAccounts(w, authedRequest("GET", "/accounts", "", userID))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]\n", w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)
	userID := uuid.New()
	accountID := uuid.New()

	deleteVia := func(id string) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Delete("/accounts/{id}", service.DeleteAccount)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("DELETE", "/accounts/"+id, "", userID))
		return w
	}

	t.Run("deletes owned account", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM accounts WHERE id = \$1 AND user_id = \$2`).
			WithArgs(accountID, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := deleteVia(accountID.String())

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown or foreign account rejected", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM accounts WHERE id = \$1 AND user_id = \$2`).
			WithArgs(accountID, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		w := deleteVia(accountID.String())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id rejected", func(t *testing.T) {
		w := deleteVia("not-a-uuid")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
