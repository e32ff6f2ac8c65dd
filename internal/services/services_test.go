package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/config"
	"github.com/arenahq/arena/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Tournament{},
		&models.Match{},
		&models.SecurityEvent{},
		&models.ScreenshotVerification{},
		&models.FlaggedAccount{},
		&models.FlagReview{},
		&models.RelatedAccount{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return db
}

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		DuplicateIPThreshold:        3,
		HighFlagEscalationThreshold: 2,
		TempBanDuration:             7 * 24 * time.Hour,
		ImageQualityReviewThreshold: 50,
		ImageHashMaxDistance:        10,
	}
}

// newSecurityStack wires the detector services the way routes.Register does.
func newSecurityStack(db *gorm.DB) (*EventService, *FlagService, *IPService, *AnomalyService, *VerificationService) {
	cfg := testSecurityConfig()
	notifier := NewNotificationService(db, "")
	events := NewEventService(db)
	flags := NewFlagService(db, cfg, events, notifier)
	ips := NewIPService(db, cfg, events, flags)
	anomalies := NewAnomalyService(db, cfg, events, flags)
	verifications := NewVerificationService(db, cfg, events)
	return events, flags, ips, anomalies, verifications
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		UUID:     uuid.NewString(),
		Email:    email,
		GamerTag: email,
		Role:     role,
		IsActive: true,
	}
	if err := user.SetPassword("password123"); err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}
