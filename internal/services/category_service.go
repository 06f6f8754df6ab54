package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fintrack/backend/internal/models"
)

const (
	msgCategoryDenied = "The category does not exist or you do not have permission to modify it."
	msgCategoryInUse  = "Category is in use by existing transactions"
)

// CategoryService handles category CRUD scoped to the authenticated user.
// Deletion is refused while any transaction still references the category.
type CategoryService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewCategoryService(db *sql.DB) *CategoryService {
	return &CategoryService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// CreateCategory adds a category for the caller
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body models.CategoryCreateRequest true "Category data"
// @Success 201 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories [post]
func (cs *CategoryService) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CategoryCreateRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := cs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	categoryID := uuid.New()
	_, err := cs.db.ExecContext(r.Context(), `
        INSERT INTO categories (id, user_id, name)
        VALUES ($1, $2, $3)
    `, categoryID, userID, req.Name)
	if err != nil {
		log.Printf("[CATEGORY] Failed to create category for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to create category", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[CATEGORY] Created %s for user %s", categoryID, userID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": categoryID.String()})
}

// UpdateCategory renames a category
// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body models.CategoryUpdateRequest true "Category data"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories [put]
func (cs *CategoryService) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req models.CategoryUpdateRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := cs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := cs.db.ExecContext(r.Context(), `
        UPDATE categories SET name = $1 WHERE id = $2 AND user_id = $3
    `, req.Name, req.ID, userID)
	if err != nil {
		log.Printf("[CATEGORY] Failed to update category %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to update category", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("[CATEGORY] Failed to update category %s: %v", req.ID, err)
		SendErrorResponse(w, "Failed to update category", http.StatusInternalServerError, nil)
		return
	}
	if rowsAffected == 0 {
		log.Printf("[CATEGORY] Update denied, %s not found or not owned by user %s", req.ID, userID)
		SendErrorResponse(w, msgCategoryDenied, http.StatusBadRequest, nil)
		return
	}

	log.Printf("[CATEGORY] Updated %s for user %s", req.ID, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Category updated"})
}

// ListCategories returns the caller's categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.CategoryDto
// @Failure 500 {object} ErrorResponse
// @Router /categories [get]
func (cs *CategoryService) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := cs.db.QueryContext(r.Context(), `
        SELECT id, name FROM categories WHERE user_id = $1 ORDER BY name
    `, userID)
	if err != nil {
		log.Printf("[CATEGORY] Failed to fetch categories for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	categories := []models.CategoryDto{}
	for rows.Next() {
		var dto models.CategoryDto
		if err := rows.Scan(&dto.ID, &dto.Name); err != nil {
			log.Printf("[CATEGORY] Failed to scan category row: %v", err)
			SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
			return
		}
		categories = append(categories, dto)
	}
	if err := rows.Err(); err != nil {
		log.Printf("[CATEGORY] Failed to read categories for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch categories", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(categories)
}

// DeleteCategory removes a category unless a transaction still references it.
// The in-use check and the delete share one database transaction so a
// concurrent insert cannot slip between them
// @Summary Delete a category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /categories/{id} [delete]
func (cs *CategoryService) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		SendErrorResponse(w, "Invalid category id", http.StatusBadRequest, nil)
		return
	}

	ctx := r.Context()
	dbTx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[CATEGORY] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to delete category", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	var owned bool
	err = dbTx.QueryRowContext(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM categories
            WHERE id = $1 AND user_id = $2
        )
    `, categoryID, userID).Scan(&owned)
	if err != nil {
		log.Printf("[CATEGORY] Ownership check failed for %s: %v", categoryID, err)
		SendErrorResponse(w, "Failed to delete category", http.StatusInternalServerError, nil)
		return
	}
	if !owned {
		log.Printf("[CATEGORY] Delete denied, %s not found or not owned by user %s", categoryID, userID)
		SendErrorResponse(w, msgCategoryDenied, http.StatusBadRequest, nil)
		return
	}

	var inUse bool
	err = dbTx.QueryRowContext(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM transactions WHERE category_id = $1
        )
    `, categoryID).Scan(&inUse)
	if err != nil {
		log.Printf("[CATEGORY] In-use check failed for %s: %v", categoryID, err)
		SendErrorResponse(w, "Failed to delete category", http.StatusInternalServerError, nil)
		return
	}
	if inUse {
		log.Printf("[CATEGORY] Delete denied, %s still referenced by transactions", categoryID)
		SendErrorResponse(w, msgCategoryInUse, http.StatusBadRequest, nil)
		return
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, categoryID); err != nil {
		log.Printf("[CATEGORY] Failed to delete category %s: %v", categoryID, err)
		SendErrorResponse(w, "Failed to delete category", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[CATEGORY] Failed to commit delete of %s: %v", categoryID, err)
		SendErrorResponse(w, "Failed to delete category", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[CATEGORY] Deleted %s for user %s", categoryID, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Category deleted"})
}
