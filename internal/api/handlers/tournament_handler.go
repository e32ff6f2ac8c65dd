package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/models"
)

type TournamentHandler struct {
	db *gorm.DB
}

func NewTournamentHandler(db *gorm.DB) *TournamentHandler {
	return &TournamentHandler{db: db}
}

func (h *TournamentHandler) List(c *gin.Context) {
	q := h.db.Model(&models.Tournament{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if game := c.Query("gameType"); game != "" {
		q = q.Where("game_type = ?", game)
	}

	var tournaments []models.Tournament
	if err := q.Order("starts_at desc").Find(&tournaments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tournaments"})
		return
	}
	c.JSON(http.StatusOK, tournaments)
}

func (h *TournamentHandler) Get(c *gin.Context) {
	var tournament models.Tournament
	err := h.db.Where("uuid = ?", c.Param("id")).First(&tournament).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "tournament not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tournament"})
		return
	}
	c.JSON(http.StatusOK, tournament)
}
