package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/config"
	"github.com/arenahq/arena/backend/internal/models"
)

// IPCheckResult reports whether other accounts have logged in from the same IP.
type IPCheckResult struct {
	IsDuplicate    bool   `json:"is_duplicate"`
	DuplicateCount int    `json:"duplicate_count"`
	MatchedUserIDs []uint `json:"matched_user_ids,omitempty"`
}

// IPService cross-references login IPs against event history to find shared-IP
// account clusters. It runs synchronously on successful login and its failures
// never block the login itself.
type IPService struct {
	db     *gorm.DB
	cfg    config.SecurityConfig
	events *EventService
	flags  *FlagService
}

func NewIPService(db *gorm.DB, cfg config.SecurityConfig, events *EventService, flags *FlagService) *IPService {
	return &IPService{db: db, cfg: cfg, events: events, flags: flags}
}

// CheckLogin records the login event and looks for other accounts seen on the
// same IP. One or more matches logs a duplicate_ip event; once the cluster of
// accounts sharing the IP (current login included) reaches the configured
// threshold, the account is flagged for multiple_ip_addresses.
func (s *IPService) CheckLogin(userID uint, ip, userAgent string) (*IPCheckResult, error) {
	result := &IPCheckResult{}
	if ip == "" {
		return result, nil
	}

	s.events.TryLog(userID, models.EventLoginAttempt, models.SeverityLow,
		"successful login",
		models.EventMetadata{IP: ip, UserAgent: userAgent})

	var matched []uint
	err := s.db.Model(&models.SecurityEvent{}).
		Where("event_type = ? AND ip = ? AND user_id <> ?", models.EventLoginAttempt, ip, userID).
		Distinct("user_id").
		Pluck("user_id", &matched).Error
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return result, nil
	}

	result.IsDuplicate = true
	result.DuplicateCount = len(matched)
	result.MatchedUserIDs = matched

	s.events.TryLog(userID, models.EventDuplicateIP, models.SeverityMedium,
		fmt.Sprintf("%d other accounts have logged in from this IP", len(matched)),
		models.EventMetadata{IP: ip, UserAgent: userAgent, MatchedUserIDs: matched})

	if len(matched)+1 >= s.cfg.DuplicateIPThreshold {
		flag, err := s.flags.Flag(userID, models.FlagReasonMultipleIPs, models.SeverityHigh,
			fmt.Sprintf("IP shared with %d other accounts", len(matched)),
			models.FlagEvidence{IPHistory: []string{ip}}, nil)
		if err != nil {
			return result, err
		}
		related := make([]models.RelatedAccount, len(matched))
		for i, id := range matched {
			related[i] = models.RelatedAccount{
				UserID:       id,
				Relationship: "shared_ip",
				Confidence:   0.8,
			}
		}
		if err := s.flags.AttachRelated(flag, related); err != nil {
			return result, err
		}
	}

	return result, nil
}
