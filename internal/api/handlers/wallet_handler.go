package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenahq/arena/backend/internal/api/middleware"
	"github.com/arenahq/arena/backend/internal/services"
)

type WalletHandler struct {
	wallets *services.WalletService
}

func NewWalletHandler(wallets *services.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func (h *WalletHandler) Balance(c *gin.Context) {
	balance, frozen, err := h.wallets.Balance(middleware.UserID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wallet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance, "frozen": frozen})
}

type walletMutationRequest struct {
	UserID uint  `json:"userId" binding:"required"`
	Amount int64 `json:"amount" binding:"required"`
}

func (h *WalletHandler) Credit(c *gin.Context) {
	var req walletMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.wallets.Credit(req.UserID, req.Amount); err != nil {
		h.mutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "wallet credited"})
}

func (h *WalletHandler) Debit(c *gin.Context) {
	var req walletMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.wallets.Debit(req.UserID, req.Amount); err != nil {
		h.mutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "wallet debited"})
}

func (h *WalletHandler) mutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, services.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
	case errors.Is(err, services.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient funds or wallet frozen"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet update failed"})
	}
}
