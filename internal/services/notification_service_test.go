package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arenahq/arena/backend/internal/models"
)

func TestNotificationService_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	notifier := NewNotificationService(db, "")
	user := createTestUser(t, db, "p1@arena.local", "player")

	_, err := notifier.Create(user.ID, models.NotificationTypeWarning, "Heads up", "Unusual activity on your account")
	assert.NoError(t, err)
	_, err = notifier.Create(user.ID, models.NotificationTypeInfo, "Welcome", "Good luck out there")
	assert.NoError(t, err)

	list, err := notifier.List(user.ID, false)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	for _, n := range list {
		assert.False(t, n.Read)
	}
}

func TestNotificationService_UserScoping(t *testing.T) {
	db := setupTestDB(t)
	notifier := NewNotificationService(db, "")
	a := createTestUser(t, db, "a@arena.local", "player")
	b := createTestUser(t, db, "b@arena.local", "player")

	created, err := notifier.Create(a.ID, models.NotificationTypeInfo, "For A", "only A sees this")
	assert.NoError(t, err)

	list, err := notifier.List(b.ID, false)
	assert.NoError(t, err)
	assert.Empty(t, list)

	// B cannot mark A's notification read.
	assert.NoError(t, notifier.MarkAsRead(b.ID, created.ID))
	list, err = notifier.List(a.ID, true)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNotificationService_MarkRead(t *testing.T) {
	db := setupTestDB(t)
	notifier := NewNotificationService(db, "")
	user := createTestUser(t, db, "p1@arena.local", "player")

	first, err := notifier.Create(user.ID, models.NotificationTypeInfo, "One", "")
	assert.NoError(t, err)
	_, err = notifier.Create(user.ID, models.NotificationTypeInfo, "Two", "")
	assert.NoError(t, err)

	assert.NoError(t, notifier.MarkAsRead(user.ID, first.ID))
	unread, err := notifier.List(user.ID, true)
	assert.NoError(t, err)
	assert.Len(t, unread, 1)

	assert.NoError(t, notifier.MarkAllAsRead(user.ID))
	unread, err = notifier.List(user.ID, true)
	assert.NoError(t, err)
	assert.Empty(t, unread)
}
