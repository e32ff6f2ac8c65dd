package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arenahq/arena/backend/internal/models"
)

func TestAnomalyService_CleanStats(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, anomalies, _ := newSecurityStack(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	result, err := anomalies.Analyze(user.ID, "match-1", models.ClaimedStats{
		Kills: 8, Deaths: 3, Accuracy: 40, Headshots: 2, MatchMinutes: 20,
	})
	assert.NoError(t, err)
	assert.False(t, result.IsSuspicious)
	assert.Empty(t, result.Flags)
	assert.Equal(t, models.SeverityLow, result.RiskLevel)

	var count int64
	assert.NoError(t, db.Model(&models.SecurityEvent{}).Count(&count).Error)
	assert.Zero(t, count, "clean stats must not generate events")
}

func TestAnomalyService_RuleTable(t *testing.T) {
	tests := []struct {
		name    string
		stats   models.ClaimedStats
		ruleIDs []string
		risk    models.Severity
	}{
		{
			name:    "kill rate above five per minute",
			stats:   models.ClaimedStats{Kills: 30, MatchMinutes: 5},
			ruleIDs: []string{"kills_per_minute"},
			risk:    models.SeverityHigh,
		},
		{
			name:    "accuracy above ninety five",
			stats:   models.ClaimedStats{Kills: 2, Accuracy: 98, MatchMinutes: 20},
			ruleIDs: []string{"accuracy"},
			risk:    models.SeverityMedium,
		},
		{
			name:    "headshot ratio above point eight",
			stats:   models.ClaimedStats{Kills: 10, Headshots: 9, MatchMinutes: 20},
			ruleIDs: []string{"headshot_ratio"},
			risk:    models.SeverityHigh,
		},
		{
			name:    "all rules at once",
			stats:   models.ClaimedStats{Kills: 40, Headshots: 38, Accuracy: 99, MatchMinutes: 5},
			ruleIDs: []string{"kills_per_minute", "accuracy", "headshot_ratio"},
			risk:    models.SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			_, _, _, anomalies, _ := newSecurityStack(db)
			user := createTestUser(t, db, "p1@arena.local", "player")

			result, err := anomalies.Analyze(user.ID, "match-1", tt.stats)
			assert.NoError(t, err)
			assert.True(t, result.IsSuspicious)
			assert.Equal(t, tt.risk, result.RiskLevel)

			var ids []string
			for _, f := range result.Flags {
				ids = append(ids, f.RuleID)
			}
			assert.Equal(t, tt.ruleIDs, ids)
		})
	}
}

func TestAnomalyService_ZeroMinutesDoesNotDivide(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, anomalies, _ := newSecurityStack(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	result, err := anomalies.Analyze(user.ID, "match-1", models.ClaimedStats{Kills: 50, MatchMinutes: 0})
	assert.NoError(t, err)
	for _, f := range result.Flags {
		assert.NotEqual(t, "kills_per_minute", f.RuleID)
	}
}

func TestAnomalyService_BundledEvent(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, anomalies, _ := newSecurityStack(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	_, err := anomalies.Analyze(user.ID, "match-9", models.ClaimedStats{
		Kills: 40, Headshots: 38, Accuracy: 99, MatchMinutes: 5,
	})
	assert.NoError(t, err)

	var events []models.SecurityEvent
	assert.NoError(t, db.Where("event_type = ?", models.EventSuspiciousActivity).Find(&events).Error)
	assert.Len(t, events, 1, "all triggered rules bundle into one event")

	meta, err := events[0].ParsedMetadata()
	assert.NoError(t, err)
	assert.Equal(t, "match-9", meta.MatchUUID)
	assert.ElementsMatch(t, []string{"kills_per_minute", "accuracy", "headshot_ratio"}, meta.Flags)
	assert.EqualValues(t, 40, meta.Metrics["kills"])
}

func TestAnomalyService_TwoHighRulesFlagAccount(t *testing.T) {
	db := setupTestDB(t)
	_, _, _, anomalies, _ := newSecurityStack(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	// Only one high rule fires: no flag.
	_, err := anomalies.Analyze(user.ID, "match-1", models.ClaimedStats{Kills: 30, MatchMinutes: 5})
	assert.NoError(t, err)
	var count int64
	assert.NoError(t, db.Model(&models.FlaggedAccount{}).Count(&count).Error)
	assert.Zero(t, count)

	// Two high rules fire: the account is flagged.
	_, err = anomalies.Analyze(user.ID, "match-2", models.ClaimedStats{Kills: 30, Headshots: 29, MatchMinutes: 5})
	assert.NoError(t, err)

	var flag models.FlaggedAccount
	assert.NoError(t, db.Where("user_id = ?", user.ID).First(&flag).Error)
	assert.Equal(t, models.FlagReasonSuspiciousPerformance, flag.FlagReason)
	assert.Equal(t, models.SeverityHigh, flag.Severity)
}
