package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/config"
	"github.com/arenahq/arena/backend/internal/models"
)

func newAuthService(db *gorm.DB) *AuthService {
	_, _, ips, _, _ := newSecurityStack(db)
	cfg := config.Config{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Security:  testSecurityConfig(),
	}
	return NewAuthService(db, cfg, ips)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	auth := newAuthService(db)

	user, err := auth.Register("p1@arena.local", "shadow", "password123")
	assert.NoError(t, err)
	assert.Equal(t, "player", user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "password123", user.PasswordHash, "password must be stored hashed")

	_, err = auth.Register("p1@arena.local", "shadow2", "password123")
	assert.ErrorIs(t, err, ErrEmailTaken)

	token, loggedIn, err := auth.Login("p1@arena.local", "password123", "203.0.113.5", "test-agent")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := auth.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "player", claims.Role)

	// Successful login feeds the IP detector.
	var count int64
	assert.NoError(t, db.Model(&models.SecurityEvent{}).
		Where("user_id = ? AND event_type = ?", user.ID, models.EventLoginAttempt).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAuthService_WrongPassword(t *testing.T) {
	db := setupTestDB(t)
	auth := newAuthService(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	_, _, err := auth.Login(user.Email, "wrong", "203.0.113.5", "test-agent")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login("nobody@arena.local", "whatever", "203.0.113.5", "test-agent")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LockoutAfterRepeatedFailures(t *testing.T) {
	db := setupTestDB(t)
	auth := newAuthService(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	for i := 0; i < maxFailedLogins; i++ {
		_, _, err := auth.Login(user.Email, "wrong", "203.0.113.5", "test-agent")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the right password bounces while locked.
	_, _, err := auth.Login(user.Email, "password123", "203.0.113.5", "test-agent")
	assert.ErrorIs(t, err, ErrAccountLocked)

	var got models.User
	assert.NoError(t, db.First(&got, user.ID).Error)
	assert.Equal(t, maxFailedLogins, got.FailedLoginAttempts)
	assert.NotNil(t, got.LockedUntil)
}

func TestAuthService_LockResetOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	auth := newAuthService(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	for i := 0; i < maxFailedLogins-1; i++ {
		_, _, err := auth.Login(user.Email, "wrong", "203.0.113.5", "test-agent")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, _, err := auth.Login(user.Email, "password123", "203.0.113.5", "test-agent")
	assert.NoError(t, err)

	var got models.User
	assert.NoError(t, db.First(&got, user.ID).Error)
	assert.Zero(t, got.FailedLoginAttempts)
	assert.NotNil(t, got.LastLogin)
	assert.Equal(t, "203.0.113.5", got.LastLoginIP)
}

func TestAuthService_BannedAccountCannotLogin(t *testing.T) {
	db := setupTestDB(t)
	auth := newAuthService(db)
	user := createTestUser(t, db, "p1@arena.local", "player")

	expires := time.Now().Add(24 * time.Hour)
	assert.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"is_active":      false,
		"ban_reason":     "stat manipulation",
		"ban_expires_at": expires,
	}).Error)

	_, _, err := auth.Login(user.Email, "password123", "203.0.113.5", "test-agent")
	assert.ErrorIs(t, err, ErrAccountBanned)
	assert.Contains(t, err.Error(), "stat manipulation")
}

func TestAuthService_VerifyTokenRejectsTampering(t *testing.T) {
	db := setupTestDB(t)
	auth := newAuthService(db)
	createTestUser(t, db, "p1@arena.local", "player")

	token, _, err := auth.Login("p1@arena.local", "password123", "", "")
	assert.NoError(t, err)

	_, err = auth.VerifyToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = auth.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
