package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/logger"
	"github.com/arenahq/arena/backend/internal/metrics"
	"github.com/arenahq/arena/backend/internal/models"
	"github.com/arenahq/arena/backend/internal/util"
)

var ErrEventNotFound = errors.New("security event not found")

// EventService appends immutable security events and serves the admin queries
// over them. Core event fields are never mutated after creation; only the
// review fields change, exactly once, when an admin works the queue.
type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// Log appends one security event. Critical events are escalated automatically
// so the dashboard surfaces them ahead of the rest of the queue.
func (s *EventService) Log(userID uint, eventType models.EventType, severity models.Severity, description string, meta models.EventMetadata) (*models.SecurityEvent, error) {
	event := &models.SecurityEvent{
		UUID:         uuid.NewString(),
		UserID:       userID,
		EventType:    eventType,
		Severity:     severity,
		Description:  util.SanitizeForLog(description),
		Escalated:    severity == models.SeverityCritical,
		ReviewStatus: models.ReviewPending,
	}
	if err := event.SetMetadata(meta); err != nil {
		return nil, err
	}
	if err := s.db.Create(event).Error; err != nil {
		return nil, err
	}
	metrics.IncSecurityEvent(string(eventType), string(severity))
	return event, nil
}

// TryLog logs an event and swallows storage failures. Detectors call this from
// primary user-facing flows; security instrumentation must never break the
// operation that triggered it.
func (s *EventService) TryLog(userID uint, eventType models.EventType, severity models.Severity, description string, meta models.EventMetadata) *models.SecurityEvent {
	event, err := s.Log(userID, eventType, severity, description, meta)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"user_id":    userID,
			"event_type": eventType,
		}).WithError(err).Warn("failed to log security event")
		return nil
	}
	return event
}

// Review records the one-time admin review of an event.
func (s *EventService) Review(eventUUID string, reviewerID uint, status models.ReviewStatus, notes, action string) error {
	res := s.db.Model(&models.SecurityEvent{}).
		Where("uuid = ?", eventUUID).
		Updates(map[string]interface{}{
			"review_status": status,
			"reviewer_id":   reviewerID,
			"review_notes":  util.SanitizeForLog(notes),
			"action_taken":  action,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// EventFilter narrows the paginated event listing.
type EventFilter struct {
	EventType string
	Severity  string
	Status    string
	UserID    uint
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// List returns a filtered, paginated page of events plus the total match count.
func (s *EventService) List(f EventFilter) ([]models.SecurityEvent, int64, error) {
	q := s.db.Model(&models.SecurityEvent{})
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.Status != "" {
		q = q.Where("review_status = ?", f.Status)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	var events []models.SecurityEvent
	err := q.Order("escalated desc, created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&events).Error
	return events, total, err
}

// DashboardSummary is the aggregate view for the admin landing page.
type DashboardSummary struct {
	TotalEvents    int64                  `json:"total_events"`
	PendingReviews int64                  `json:"pending_reviews"`
	ActiveFlags    int64                  `json:"active_flags"`
	CriticalEvents int64                  `json:"critical_events"`
	RecentEvents   []models.SecurityEvent `json:"recent_events"`
}

// Dashboard aggregates the headline counts plus the ten most recent events,
// escalated ones first.
func (s *EventService) Dashboard() (*DashboardSummary, error) {
	var summary DashboardSummary
	if err := s.db.Model(&models.SecurityEvent{}).Count(&summary.TotalEvents).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.SecurityEvent{}).
		Where("review_status = ?", models.ReviewPending).
		Count(&summary.PendingReviews).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.FlaggedAccount{}).
		Where("is_resolved = ?", false).
		Count(&summary.ActiveFlags).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.SecurityEvent{}).
		Where("severity = ?", models.SeverityCritical).
		Count(&summary.CriticalEvents).Error; err != nil {
		return nil, err
	}
	if err := s.db.Order("escalated desc, created_at desc").
		Limit(10).
		Find(&summary.RecentEvents).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// GroupCount is one bucket of a grouped statistics query.
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// VerificationStats summarizes the screenshot queue by status.
type VerificationStats struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	Verified    int64 `json:"verified"`
	Rejected    int64 `json:"rejected"`
	NeedsReview int64 `json:"needs_review"`
	Suspicious  int64 `json:"suspicious"`
}

// Statistics is the time-windowed aggregate report.
type Statistics struct {
	Period           string                 `json:"period"`
	Since            time.Time              `json:"since"`
	TotalEvents      int64                  `json:"total_events"`
	EventsByType     []GroupCount           `json:"events_by_type"`
	EventsBySeverity []GroupCount           `json:"events_by_severity"`
	FlagsByReason    []GroupCount           `json:"flags_by_reason"`
	Verifications    VerificationStats      `json:"verifications"`
	RecentActivity   []models.SecurityEvent `json:"recent_activity"`
}

// ErrBadPeriod rejects statistics windows outside 24h/7d/30d.
var ErrBadPeriod = errors.New("period must be one of 24h, 7d, 30d")

// Statistics computes grouped aggregates for a trailing window.
func (s *EventService) Statistics(period string) (*Statistics, error) {
	var window time.Duration
	switch period {
	case "24h":
		window = 24 * time.Hour
	case "7d":
		window = 7 * 24 * time.Hour
	case "30d":
		window = 30 * 24 * time.Hour
	default:
		return nil, ErrBadPeriod
	}
	since := time.Now().Add(-window)
	stats := &Statistics{Period: period, Since: since}

	events := s.db.Model(&models.SecurityEvent{}).Where("created_at >= ?", since)
	if err := events.Count(&stats.TotalEvents).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.SecurityEvent{}).
		Select("event_type as key, count(*) as count").
		Where("created_at >= ?", since).
		Group("event_type").
		Scan(&stats.EventsByType).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.SecurityEvent{}).
		Select("severity as key, count(*) as count").
		Where("created_at >= ?", since).
		Group("severity").
		Scan(&stats.EventsBySeverity).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.FlaggedAccount{}).
		Select("flag_reason as key, count(*) as count").
		Where("updated_at >= ?", since).
		Group("flag_reason").
		Scan(&stats.FlagsByReason).Error; err != nil {
		return nil, err
	}

	verifications := func(status models.VerificationStatus, dst *int64) error {
		return s.db.Model(&models.ScreenshotVerification{}).
			Where("created_at >= ? AND status = ?", since, status).
			Count(dst).Error
	}
	if err := s.db.Model(&models.ScreenshotVerification{}).
		Where("created_at >= ?", since).
		Count(&stats.Verifications.Total).Error; err != nil {
		return nil, err
	}
	for status, dst := range map[models.VerificationStatus]*int64{
		models.VerificationPending:     &stats.Verifications.Pending,
		models.VerificationVerified:    &stats.Verifications.Verified,
		models.VerificationRejected:    &stats.Verifications.Rejected,
		models.VerificationNeedsReview: &stats.Verifications.NeedsReview,
		models.VerificationSuspicious:  &stats.Verifications.Suspicious,
	} {
		if err := verifications(status, dst); err != nil {
			return nil, err
		}
	}

	if err := s.db.Where("created_at >= ?", since).
		Order("created_at desc").
		Limit(10).
		Find(&stats.RecentActivity).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// normalizePage clamps pagination params to sane bounds.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
