package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arenahq/arena/backend/internal/models"
)

func TestIPService_FirstLoginIsClean(t *testing.T) {
	db := setupTestDB(t)
	_, _, ips, _, _ := newSecurityStack(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	result, err := ips.CheckLogin(user.ID, "203.0.113.5", "test-agent")
	assert.NoError(t, err)
	assert.False(t, result.IsDuplicate)
	assert.Zero(t, result.DuplicateCount)

	// The login itself is still recorded.
	var count int64
	assert.NoError(t, db.Model(&models.SecurityEvent{}).
		Where("user_id = ? AND event_type = ?", user.ID, models.EventLoginAttempt).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestIPService_EmptyIPIsIgnored(t *testing.T) {
	db := setupTestDB(t)
	_, _, ips, _, _ := newSecurityStack(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	result, err := ips.CheckLogin(user.ID, "", "test-agent")
	assert.NoError(t, err)
	assert.False(t, result.IsDuplicate)

	var count int64
	assert.NoError(t, db.Model(&models.SecurityEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIPService_SharedIPLogsDuplicateEvent(t *testing.T) {
	db := setupTestDB(t)
	_, _, ips, _, _ := newSecurityStack(db)
	a := createTestUser(t, db, "a@arena.local", "player")
	b := createTestUser(t, db, "b@arena.local", "player")

	_, err := ips.CheckLogin(a.ID, "203.0.113.5", "test-agent")
	assert.NoError(t, err)

	result, err := ips.CheckLogin(b.ID, "203.0.113.5", "test-agent")
	assert.NoError(t, err)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, 1, result.DuplicateCount)
	assert.Equal(t, []uint{a.ID}, result.MatchedUserIDs)

	var event models.SecurityEvent
	assert.NoError(t, db.Where("user_id = ? AND event_type = ?", b.ID, models.EventDuplicateIP).
		First(&event).Error)
	assert.Equal(t, models.SeverityMedium, event.Severity)

	meta, err := event.ParsedMetadata()
	assert.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, meta.MatchedUserIDs)

	// One shared account is below the flagging threshold.
	var flags int64
	assert.NoError(t, db.Model(&models.FlaggedAccount{}).Count(&flags).Error)
	assert.Zero(t, flags)
}

func TestIPService_ThresholdFlagsAccount(t *testing.T) {
	db := setupTestDB(t)
	_, flagSvc, ips, _, _ := newSecurityStack(db)

	// Two prior accounts on the IP make the third login the tipping point.
	var prior []uint
	for i := 0; i < 2; i++ {
		u := createTestUser(t, db, fmt.Sprintf("p%d@arena.local", i), "player")
		_, err := ips.CheckLogin(u.ID, "203.0.113.5", "test-agent")
		assert.NoError(t, err)
		prior = append(prior, u.ID)
	}
	last := createTestUser(t, db, "last@arena.local", "player")

	result, err := ips.CheckLogin(last.ID, "203.0.113.5", "test-agent")
	assert.NoError(t, err)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, 2, result.DuplicateCount)

	var flag models.FlaggedAccount
	assert.NoError(t, db.Where("user_id = ?", last.ID).First(&flag).Error)
	assert.Equal(t, models.FlagReasonMultipleIPs, flag.FlagReason)
	assert.Equal(t, models.SeverityHigh, flag.Severity)

	loaded, err := flagSvc.Get(flag.UUID)
	assert.NoError(t, err)
	assert.Len(t, loaded.RelatedAccounts, 2)
	for _, rel := range loaded.RelatedAccounts {
		assert.Equal(t, "shared_ip", rel.Relationship)
		assert.Contains(t, prior, rel.UserID)
	}
}

func TestIPService_RepeatLoginsOfSameUserDoNotMatchThemselves(t *testing.T) {
	db := setupTestDB(t)
	_, _, ips, _, _ := newSecurityStack(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	for i := 0; i < 5; i++ {
		result, err := ips.CheckLogin(user.ID, "203.0.113.5", "test-agent")
		assert.NoError(t, err)
		assert.False(t, result.IsDuplicate)
	}
}
