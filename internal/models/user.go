package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated owner of accounts and categories. Users are never
// hard-deleted; deactivation flips IsActive instead.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
