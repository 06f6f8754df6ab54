package models

import "github.com/google/uuid"

// Category labels transactions. Deletion is denied while any transaction
// still references the category.
type Category struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"-" db:"user_id"`
	Name   string    `json:"name" db:"name"`
}

type CategoryCreateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CategoryUpdateRequest struct {
	ID   uuid.UUID `json:"id" validate:"required"`
	Name string    `json:"name" validate:"required,max=100"`
}

type CategoryDto struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
