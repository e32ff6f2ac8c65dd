package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arenahq/arena/backend/internal/api/middleware"
	"github.com/arenahq/arena/backend/internal/models"
	"github.com/arenahq/arena/backend/internal/services"
)

// SecurityHandler exposes the admin review surface: event logs, flagged
// accounts, the screenshot queue and the aggregate views over them.
type SecurityHandler struct {
	events        *services.EventService
	flags         *services.FlagService
	verifications *services.VerificationService
}

func NewSecurityHandler(events *services.EventService, flags *services.FlagService, verifications *services.VerificationService) *SecurityHandler {
	return &SecurityHandler{events: events, flags: flags, verifications: verifications}
}

// RegisterRoutes mounts the admin security routes plus the player appeal route.
func (h *SecurityHandler) RegisterRoutes(authed, admin *gin.RouterGroup) {
	authed.POST("/security/screenshot-verifications/:id/appeal", h.Appeal)

	admin.GET("/security/dashboard", h.Dashboard)
	admin.GET("/security/logs", h.ListEvents)
	admin.POST("/security/logs/:id/review", h.ReviewEvent)
	admin.GET("/security/flagged-accounts", h.ListFlags)
	admin.GET("/security/flagged-accounts/:id", h.GetFlag)
	admin.POST("/security/flagged-accounts/:id/review", h.ReviewFlag)
	admin.GET("/security/screenshot-verifications", h.ListVerifications)
	admin.POST("/security/screenshot-verifications/:id/review", h.ReviewVerification)
	admin.POST("/security/screenshot-verifications/:id/appeal/resolve", h.ResolveAppeal)
	admin.POST("/security/flag-account", h.FlagAccount)
	admin.GET("/security/statistics", h.Statistics)
}

func (h *SecurityHandler) Dashboard(c *gin.Context) {
	summary, err := h.events.Dashboard()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *SecurityHandler) ListEvents(c *gin.Context) {
	filter := services.EventFilter{
		EventType: c.Query("eventType"),
		Severity:  c.Query("severity"),
		Status:    c.Query("status"),
		Page:      intQuery(c, "page"),
		Limit:     intQuery(c, "limit"),
	}
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId must be numeric"})
			return
		}
		filter.UserID = uint(id)
	}
	if t, ok := dateQuery(c, "startDate"); ok {
		filter.StartDate = t
	}
	if t, ok := dateQuery(c, "endDate"); ok {
		filter.EndDate = t
	}

	events, total, err := h.events.List(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list security events"})
		return
	}
	c.JSON(http.StatusOK, pagedResponse(events, total, filter.Page, filter.Limit))
}

type reviewEventRequest struct {
	Status      models.ReviewStatus `json:"status" binding:"required"`
	Notes       string              `json:"notes"`
	ActionTaken string              `json:"actionTaken"`
}

// ReviewEvent records the one-time admin review of a security event. Core
// event fields stay immutable; only the review fields change.
func (h *SecurityHandler) ReviewEvent(c *gin.Context) {
	var req reviewEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.events.Review(c.Param("id"), middleware.UserID(c), req.Status, req.Notes, req.ActionTaken)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "security event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record review"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reviewed"})
}

func (h *SecurityHandler) ListFlags(c *gin.Context) {
	filter := services.FlagFilter{
		Status:     c.Query("status"),
		Severity:   c.Query("severity"),
		FlagReason: c.Query("flagReason"),
		Page:       intQuery(c, "page"),
		Limit:      intQuery(c, "limit"),
	}
	if raw := c.Query("isResolved"); raw != "" {
		resolved := raw == "true"
		filter.IsResolved = &resolved
	}

	flags, total, err := h.flags.List(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list flagged accounts"})
		return
	}
	c.JSON(http.StatusOK, pagedResponse(flags, total, filter.Page, filter.Limit))
}

func (h *SecurityHandler) GetFlag(c *gin.Context) {
	flag, err := h.flags.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrFlagNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "flagged account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load flagged account"})
		return
	}
	c.JSON(http.StatusOK, flag)
}

type reviewFlagRequest struct {
	Action models.ReviewAction `json:"action" binding:"required"`
	Notes  string              `json:"notes"`
}

func (h *SecurityHandler) ReviewFlag(c *gin.Context) {
	var req reviewFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flag, err := h.flags.Review(c.Param("id"), req.Action, req.Notes, middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFlagNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "flagged account not found"})
		case errors.Is(err, services.ErrBadReviewAction):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown review action"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply review"})
		}
		return
	}
	c.JSON(http.StatusOK, flag)
}

func (h *SecurityHandler) ListVerifications(c *gin.Context) {
	filter := services.VerificationFilter{
		Status:   c.Query("status"),
		GameType: c.Query("gameType"),
		Severity: c.Query("severity"),
		Page:     intQuery(c, "page"),
		Limit:    intQuery(c, "limit"),
	}

	subs, total, err := h.verifications.List(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list verifications"})
		return
	}
	c.JSON(http.StatusOK, pagedResponse(subs, total, filter.Page, filter.Limit))
}

type reviewVerificationRequest struct {
	Score           *int     `json:"score" binding:"required"`
	Notes           string   `json:"notes"`
	Discrepancies   []string `json:"discrepancies"`
	RejectionReason string   `json:"rejectionReason"`
}

func (h *SecurityHandler) ReviewVerification(c *gin.Context) {
	var req reviewVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.verifications.ManualReview(c.Param("id"), middleware.UserID(c), *req.Score, req.Notes, req.Discrepancies, req.RejectionReason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVerificationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
		case errors.Is(err, services.ErrInvalidReviewScore):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record review"})
		}
		return
	}
	c.JSON(http.StatusOK, sub)
}

type appealRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *SecurityHandler) Appeal(c *gin.Context) {
	var req appealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.verifications.Appeal(c.Param("id"), middleware.UserID(c), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVerificationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
		case errors.Is(err, services.ErrNotSubmitter):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the submitter may appeal"})
		case errors.Is(err, services.ErrAppealNotAllowed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "appeal is only allowed on rejected submissions"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open appeal"})
		}
		return
	}
	c.JSON(http.StatusOK, sub)
}

type resolveAppealRequest struct {
	Decision models.AppealDecision `json:"decision" binding:"required"`
}

func (h *SecurityHandler) ResolveAppeal(c *gin.Context) {
	var req resolveAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.verifications.ResolveAppeal(c.Param("id"), req.Decision, middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVerificationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "verification not found"})
		case errors.Is(err, services.ErrAppealNotPending), errors.Is(err, services.ErrBadAppealDecision):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve appeal"})
		}
		return
	}
	c.JSON(http.StatusOK, sub)
}

type flagAccountRequest struct {
	UserID      uint                `json:"userId" binding:"required"`
	Reason      models.FlagReason   `json:"reason" binding:"required"`
	Severity    models.Severity     `json:"severity" binding:"required"`
	Description string              `json:"description"`
	Evidence    models.FlagEvidence `json:"evidence"`
}

func (h *SecurityHandler) FlagAccount(c *gin.Context) {
	var req flagAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Severity.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "severity must be low, medium, high or critical"})
		return
	}

	adminID := middleware.UserID(c)
	flag, err := h.flags.Flag(req.UserID, req.Reason, req.Severity, req.Description, req.Evidence, &adminID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to flag account"})
		return
	}
	c.JSON(http.StatusCreated, flag)
}

func (h *SecurityHandler) Statistics(c *gin.Context) {
	period := c.DefaultQuery("period", "24h")
	stats, err := h.events.Statistics(period)
	if err != nil {
		if errors.Is(err, services.ErrBadPeriod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- shared helpers ---

func intQuery(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func dateQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse("2006-01-02", raw); err != nil {
			return nil, false
		}
	}
	return &t, true
}

func pagedResponse(data interface{}, total int64, page, limit int) gin.H {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return gin.H{"data": data, "total": total, "page": page, "limit": limit}
}
