package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserPasswordHashing(t *testing.T) {
	u := &User{}
	err := u.SetPassword("hunter2hunter2")
	assert.NoError(t, err)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "hunter2hunter2", u.PasswordHash)
	assert.True(t, u.CheckPassword("hunter2hunter2"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestUserBanExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	active := &User{IsActive: true}
	assert.False(t, active.BanExpired(now))

	permanent := &User{IsActive: false}
	assert.False(t, permanent.BanExpired(now))

	expired := &User{IsActive: false, BanExpiresAt: &past}
	assert.True(t, expired.BanExpired(now))

	current := &User{IsActive: false, BanExpiresAt: &future}
	assert.False(t, current.BanExpired(now))
}

func TestUserIsLocked(t *testing.T) {
	future := time.Now().Add(10 * time.Minute)
	past := time.Now().Add(-10 * time.Minute)

	assert.False(t, (&User{}).IsLocked())
	assert.True(t, (&User{LockedUntil: &future}).IsLocked())
	assert.False(t, (&User{LockedUntil: &past}).IsLocked())
}
