package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCategoryService_CreateCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)
	userID := uuid.New()

	t.Run("creates category", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO categories`).
			WithArgs(sqlmock.AnyArg(), userID, "Groceries").
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := httptest.NewRecorder()
		service.CreateCategory(w, authedRequest("POST", "/categories", `{"name":"Groceries"}`, userID))

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp map[string]string
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		_, err := uuid.Parse(resp["id"])
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty name rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		service.CreateCategory(w, authedRequest("POST", "/categories", `{"name":""}`, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCategoryService_UpdateCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)
	userID := uuid.New()
	categoryID := uuid.New()

	body := fmt.Sprintf(`{"id":%q,"name":"Food"}`, categoryID)

	t.Run("renames owned category", func(t *testing.T) {
		mock.ExpectExec(`UPDATE categories SET name = \$1 WHERE id = \$2 AND user_id = \$3`).
			WithArgs("Food", categoryID, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := httptest.NewRecorder()
		service.UpdateCategory(w, authedRequest("PUT", "/categories", body, userID))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown or foreign category rejected", func(t *testing.T) {
		mock.ExpectExec(`UPDATE categories SET name = \$1 WHERE id = \$2 AND user_id = \$3`).
			WithArgs("Food", categoryID, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		w := httptest.NewRecorder()
		service.UpdateCategory(w, authedRequest("PUT", "/categories", body, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCategoryService_ListCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)
	userID := uuid.New()

	t.Run("returns only the caller's categories", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, name FROM categories WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(uuid.New().String(), "Groceries").
				AddRow(uuid.New().String(), "Salary"))

		w := httptest.NewRecorder()
		service.ListCategories(w, authedRequest("GET", "/categories", "", userID))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp []map[string]any
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCategoryService(db)
	userID := uuid.New()
	categoryID := uuid.New()

	deleteVia := func(id string) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Delete("/categories/{id}", service.DeleteCategory)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest("DELETE", "/categories/"+id, "", userID))
		return w
	}

	t.Run("deletes unused category", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM categories\s*WHERE id = \$1 AND user_id = \$2\s*\)`).
			WithArgs(categoryID, userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM transactions WHERE category_id = \$1\s*\)`).
			WithArgs(categoryID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).
			WithArgs(categoryID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := deleteVia(categoryID.String())

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("category in use is kept", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM categories\s*WHERE id = \$1 AND user_id = \$2\s*\)`).
			WithArgs(categoryID, userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM transactions WHERE category_id = \$1\s*\)`).
			WithArgs(categoryID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		w := deleteVia(categoryID.String())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, msgCategoryInUse, resp.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown or foreign category rejected", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM categories\s*WHERE id = \$1 AND user_id = \$2\s*\)`).
			WithArgs(categoryID, userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		w := deleteVia(categoryID.String())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, msgCategoryDenied, resp.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
