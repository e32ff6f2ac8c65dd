package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/models"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds or wallet frozen")
)

// WalletService mutates user balances with single conditional UPDATE
// statements; the balance is never read-modify-written from Go.
type WalletService struct {
	db *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// Balance returns the current balance and frozen state.
func (s *WalletService) Balance(userID uint) (int64, bool, error) {
	var user models.User
	if err := s.db.Select("wallet_balance", "wallet_frozen").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, ErrUserNotFound
		}
		return 0, false, err
	}
	return user.WalletBalance, user.WalletFrozen, nil
}

// Credit adds funds atomically. Frozen wallets still accept credits so prize
// reversals and refunds are never lost.
func (s *WalletService) Credit(userID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	res := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Debit removes funds atomically. The balance check and frozen check live in
// the WHERE clause so a concurrent debit can never overdraw.
func (s *WalletService) Debit(userID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	res := s.db.Model(&models.User{}).
		Where("id = ? AND wallet_frozen = ? AND wallet_balance >= ?", userID, false, amount).
		Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return ErrInsufficientFunds
	}
	return nil
}
