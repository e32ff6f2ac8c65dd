package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arenahq/arena/backend/internal/models"
)

func TestEventService_LogEscalatesCritical(t *testing.T) {
	db := setupTestDB(t)
	events := NewEventService(db)

	low, err := events.Log(1, models.EventLoginAttempt, models.SeverityLow, "login", models.EventMetadata{IP: "1.2.3.4"})
	assert.NoError(t, err)
	assert.False(t, low.Escalated)
	assert.Equal(t, models.ReviewPending, low.ReviewStatus)
	assert.Equal(t, "1.2.3.4", low.IP)

	critical, err := events.Log(1, models.EventAccountBanned, models.SeverityCritical, "perma ban", models.EventMetadata{})
	assert.NoError(t, err)
	assert.True(t, critical.Escalated)
}

func TestEventService_ReviewOnlyTouchesReviewFields(t *testing.T) {
	db := setupTestDB(t)
	events := NewEventService(db)

	event, err := events.Log(7, models.EventSuspiciousActivity, models.SeverityHigh, "odd stats", models.EventMetadata{MatchUUID: "m-1"})
	assert.NoError(t, err)

	err = events.Review(event.UUID, 42, models.ReviewResolved, "checked replay", "warning")
	assert.NoError(t, err)

	var got models.SecurityEvent
	assert.NoError(t, db.Where("uuid = ?", event.UUID).First(&got).Error)
	assert.Equal(t, models.ReviewResolved, got.ReviewStatus)
	assert.Equal(t, "checked replay", got.ReviewNotes)
	assert.Equal(t, "warning", got.ActionTaken)
	// Core fields untouched.
	assert.Equal(t, models.EventSuspiciousActivity, got.EventType)
	assert.Equal(t, "odd stats", got.Description)
	meta, err := got.ParsedMetadata()
	assert.NoError(t, err)
	assert.Equal(t, "m-1", meta.MatchUUID)
}

func TestEventService_ReviewUnknownEvent(t *testing.T) {
	db := setupTestDB(t)
	events := NewEventService(db)

	err := events.Review("missing", 1, models.ReviewDismissed, "", "")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventService_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	events := NewEventService(db)

	_, err := events.Log(1, models.EventLoginAttempt, models.SeverityLow, "login", models.EventMetadata{})
	assert.NoError(t, err)
	_, err = events.Log(2, models.EventDuplicateIP, models.SeverityMedium, "dup ip", models.EventMetadata{})
	assert.NoError(t, err)
	_, err = events.Log(2, models.EventAccountFlagged, models.SeverityHigh, "flagged", models.EventMetadata{})
	assert.NoError(t, err)

	all, total, err := events.List(EventFilter{})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	byUser, total, err := events.List(EventFilter{UserID: 2})
	assert.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, byUser, 2)

	byType, total, err := events.List(EventFilter{EventType: string(models.EventDuplicateIP)})
	assert.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, models.EventDuplicateIP, byType[0].EventType)

	paged, total, err := events.List(EventFilter{Page: 2, Limit: 2})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, paged, 1)
}

func TestEventService_Dashboard(t *testing.T) {
	db := setupTestDB(t)
	events, flags, _, _, _ := newSecurityStack(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	for i := 0; i < 12; i++ {
		_, err := events.Log(user.ID, models.EventLoginAttempt, models.SeverityLow, "login", models.EventMetadata{})
		assert.NoError(t, err)
	}
	_, err := events.Log(user.ID, models.EventAccountBanned, models.SeverityCritical, "banned", models.EventMetadata{})
	assert.NoError(t, err)
	_, err = flags.Flag(user.ID, models.FlagReasonManualReview, models.SeverityMedium, "manual", models.FlagEvidence{}, nil)
	assert.NoError(t, err)

	summary, err := events.Dashboard()
	assert.NoError(t, err)
	// 12 logins + 1 critical + 1 account_flagged from the flag call.
	assert.EqualValues(t, 14, summary.TotalEvents)
	assert.EqualValues(t, 1, summary.CriticalEvents)
	assert.EqualValues(t, 1, summary.ActiveFlags)
	assert.Len(t, summary.RecentEvents, 10)
	// Escalated events surface first.
	assert.True(t, summary.RecentEvents[0].Escalated)
}

func TestEventService_StatisticsPeriods(t *testing.T) {
	db := setupTestDB(t)
	events := NewEventService(db)

	_, err := events.Log(1, models.EventDuplicateIP, models.SeverityMedium, "dup", models.EventMetadata{})
	assert.NoError(t, err)

	stats, err := events.Statistics("24h")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalEvents)
	assert.Len(t, stats.EventsByType, 1)
	assert.Equal(t, string(models.EventDuplicateIP), stats.EventsByType[0].Key)

	_, err = events.Statistics("90d")
	assert.ErrorIs(t, err, ErrBadPeriod)
}
