package services

import (
	"fmt"
	"strings"

	"github.com/containrrr/shoutrrr"
	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/logger"
	"github.com/arenahq/arena/backend/internal/models"
)

// NotificationService writes inbox rows and pushes critical security events to
// external destinations (shoutrrr URLs).
type NotificationService struct {
	DB         *gorm.DB
	notifyURLs []string
}

func NewNotificationService(db *gorm.DB, notifyURLs string) *NotificationService {
	var urls []string
	for _, u := range strings.Split(notifyURLs, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return &NotificationService{DB: db, notifyURLs: urls}
}

// Create writes one inbox notification. UserID zero addresses all admins.
func (s *NotificationService) Create(userID uint, nType models.NotificationType, title, message string) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:  userID,
		Type:    nType,
		Title:   title,
		Message: message,
		Read:    false,
	}
	result := s.DB.Create(notification)
	return notification, result.Error
}

// TryCreate writes an inbox row, swallowing failures. Notification delivery is
// never allowed to break the security workflow that produced it.
func (s *NotificationService) TryCreate(userID uint, nType models.NotificationType, title, message string) {
	if _, err := s.Create(userID, nType, title, message); err != nil {
		logger.WithFields(map[string]interface{}{"user_id": userID}).
			WithError(err).Warn("failed to create notification")
	}
}

func (s *NotificationService) List(userID uint, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.DB.Where("user_id = ?", userID).Order("created_at desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	result := query.Find(&notifications)
	return notifications, result.Error
}

func (s *NotificationService) MarkAsRead(userID uint, id string) error {
	return s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
}

func (s *NotificationService) MarkAllAsRead(userID uint) error {
	return s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

// SendExternal pushes a message to every configured shoutrrr destination.
// Deliveries run in the background and failures are only logged.
func (s *NotificationService) SendExternal(title, message string) {
	for _, url := range s.notifyURLs {
		go func(dst string) {
			msg := fmt.Sprintf("%s\n\n%s", title, message)
			if err := shoutrrr.Send(dst, msg); err != nil {
				logger.Log().WithError(err).Warn("failed to send external notification")
			}
		}(url)
	}
}
