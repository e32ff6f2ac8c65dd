package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arenahq/arena/backend/internal/models"
)

func TestWalletService_CreditAndDebit(t *testing.T) {
	db := setupTestDB(t)
	wallet := NewWalletService(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	assert.NoError(t, wallet.Credit(user.ID, 500))
	assert.NoError(t, wallet.Debit(user.ID, 200))

	balance, frozen, err := wallet.Balance(user.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 300, balance)
	assert.False(t, frozen)
}

func TestWalletService_RejectsNonPositiveAmounts(t *testing.T) {
	db := setupTestDB(t)
	wallet := NewWalletService(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	assert.ErrorIs(t, wallet.Credit(user.ID, 0), ErrInvalidAmount)
	assert.ErrorIs(t, wallet.Credit(user.ID, -5), ErrInvalidAmount)
	assert.ErrorIs(t, wallet.Debit(user.ID, 0), ErrInvalidAmount)
}

func TestWalletService_NeverOverdraws(t *testing.T) {
	db := setupTestDB(t)
	wallet := NewWalletService(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	assert.NoError(t, wallet.Credit(user.ID, 100))
	assert.ErrorIs(t, wallet.Debit(user.ID, 101), ErrInsufficientFunds)

	balance, _, err := wallet.Balance(user.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 100, balance)
}

func TestWalletService_FrozenWallet(t *testing.T) {
	db := setupTestDB(t)
	wallet := NewWalletService(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	assert.NoError(t, wallet.Credit(user.ID, 100))
	assert.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("wallet_frozen", true).Error)

	// Debits bounce, credits still land.
	assert.ErrorIs(t, wallet.Debit(user.ID, 50), ErrInsufficientFunds)
	assert.NoError(t, wallet.Credit(user.ID, 25))

	balance, frozen, err := wallet.Balance(user.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 125, balance)
	assert.True(t, frozen)
}

func TestWalletService_UnknownUser(t *testing.T) {
	db := setupTestDB(t)
	wallet := NewWalletService(db)

	_, _, err := wallet.Balance(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, wallet.Credit(999, 10), ErrUserNotFound)
	assert.ErrorIs(t, wallet.Debit(999, 10), ErrUserNotFound)
}
