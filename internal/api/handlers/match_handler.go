package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/api/middleware"
	"github.com/arenahq/arena/backend/internal/models"
	"github.com/arenahq/arena/backend/internal/services"
)

// MatchHandler serves match context reads and the result-submission flow that
// feeds the anomaly analyzer and the verification pipeline.
type MatchHandler struct {
	db            *gorm.DB
	anomalies     *services.AnomalyService
	verifications *services.VerificationService
}

func NewMatchHandler(db *gorm.DB, anomalies *services.AnomalyService, verifications *services.VerificationService) *MatchHandler {
	return &MatchHandler{db: db, anomalies: anomalies, verifications: verifications}
}

func (h *MatchHandler) Get(c *gin.Context) {
	var match models.Match
	err := h.db.Where("uuid = ?", c.Param("id")).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load match"})
		return
	}
	c.JSON(http.StatusOK, match)
}

type submitResultRequest struct {
	ScreenshotURL string              `json:"screenshot_url" binding:"required"`
	// ScreenshotData optionally carries the raw image, base64 encoded, for
	// the perceptual duplicate check.
	ScreenshotData string              `json:"screenshot_data"`
	Stats          models.ClaimedStats `json:"stats" binding:"required"`
}

// SubmitResult runs the claimed stats through the analyzer and queues the
// screenshot for verification. Analyzer failures never reject the submission.
func (h *MatchHandler) SubmitResult(c *gin.Context) {
	var match models.Match
	err := h.db.Where("uuid = ?", c.Param("id")).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load match"})
		return
	}

	var req submitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var imageData []byte
	if req.ScreenshotData != "" {
		imageData, err = base64.StdEncoding.DecodeString(req.ScreenshotData)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "screenshot_data must be base64"})
			return
		}
	}

	userID := middleware.UserID(c)

	analysis, err := h.anomalies.Analyze(userID, match.UUID, req.Stats)
	if err != nil {
		// Detector failures must not block the submission.
		middleware.GetRequestLogger(c).WithError(err).Warn("performance analysis failed")
		analysis = &services.AnalysisResult{}
	}

	sub, err := h.verifications.Submit(services.SubmitRequest{
		MatchUUID:      match.UUID,
		UserID:         userID,
		TournamentUUID: match.TournamentUUID,
		ScreenshotURL:  req.ScreenshotURL,
		ImageData:      imageData,
		GameType:       match.GameType,
		Stats:          req.Stats,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidSubmission) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit result"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"verification": sub, "analysis": analysis})
}
