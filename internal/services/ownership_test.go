package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOwnershipValidator_ValidateAccountOwnership(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	validator := NewOwnershipValidator(db)
	accountID := uuid.New()
	userID := uuid.New()

	t.Run("owned account", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM accounts\s*WHERE id = \$1 AND user_id = \$2\s*\)`).
			WithArgs(accountID, userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		owned, err := validator.ValidateAccountOwnership(context.Background(), accountID, userID)

		assert.NoError(t, err)
		assert.True(t, owned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing and foreign accounts look identical", func(t *testing.T) {
		otherUser := uuid.New()

		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM accounts\s*WHERE id = \$1 AND user_id = \$2\s*\)`).
			WithArgs(accountID, otherUser).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM accounts\s*WHERE id = \$1 AND user_id = \$2\s*\)`).
			WithArgs(uuid.Nil, userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		foreign, err := validator.ValidateAccountOwnership(context.Background(), accountID, otherUser)
		assert.NoError(t, err)

		missing, err := validator.ValidateAccountOwnership(context.Background(), uuid.Nil, userID)
		assert.NoError(t, err)

		assert.Equal(t, foreign, missing)
		assert.False(t, foreign)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("storage failure is an error, not a denial", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(accountID, userID).
			WillReturnError(errors.New("connection reset"))

		_, err := validator.ValidateAccountOwnership(context.Background(), accountID, userID)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOwnershipValidator_ValidateCategoryOwnership(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	validator := NewOwnershipValidator(db)
	categoryID := uuid.New()
	userID := uuid.New()

	t.Run("owned category", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM categories\s*WHERE id = \$1 AND user_id = \$2\s*\)`).
			WithArgs(categoryID, userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		owned, err := validator.ValidateCategoryOwnership(context.Background(), categoryID, userID)

		assert.NoError(t, err)
		assert.True(t, owned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign category denied", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS\(\s*SELECT 1 FROM categories\s*WHERE id = \$1 AND user_id = \$2\s*\)`).
			WithArgs(categoryID, userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		owned, err := validator.ValidateCategoryOwnership(context.Background(), categoryID, userID)

		assert.NoError(t, err)
		assert.False(t, owned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
