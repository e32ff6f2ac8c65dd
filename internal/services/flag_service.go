package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arenahq/arena/backend/internal/config"
	"github.com/arenahq/arena/backend/internal/metrics"
	"github.com/arenahq/arena/backend/internal/models"
	"github.com/arenahq/arena/backend/internal/util"
)

var (
	ErrFlagNotFound    = errors.New("flagged account not found")
	ErrBadReviewAction = errors.New("unknown review action")
	ErrUserNotFound    = errors.New("user not found")
)

// severityMergeExpr keeps the higher of the existing and incoming severities
// during the upsert, inside the single conflict statement.
const severityMergeExpr = `CASE
WHEN excluded.severity = 'critical' OR flagged_accounts.severity = 'critical' THEN 'critical'
WHEN excluded.severity = 'high' OR flagged_accounts.severity = 'high' THEN 'high'
WHEN excluded.severity = 'medium' OR flagged_accounts.severity = 'medium' THEN 'medium'
ELSE 'low' END`

// FlagService is the account flagging engine and admin review workflow. A user
// has at most one flag record; concurrent detectors hitting the same user are
// serialized by the unique index plus an ON CONFLICT upsert instead of a
// find-then-save race.
type FlagService struct {
	db       *gorm.DB
	cfg      config.SecurityConfig
	events   *EventService
	notifier *NotificationService
}

func NewFlagService(db *gorm.DB, cfg config.SecurityConfig, events *EventService, notifier *NotificationService) *FlagService {
	return &FlagService{db: db, cfg: cfg, events: events, notifier: notifier}
}

// Flag creates or updates the standing risk record for a user. On re-flag the
// severity merges upward, evidence and reason are overwritten with the latest
// signal, and the status drops back to pending for re-review. Always logs an
// account_flagged event.
func (s *FlagService) Flag(userID uint, reason models.FlagReason, severity models.Severity, description string, evidence models.FlagEvidence, flaggedBy *uint) (*models.FlaggedAccount, error) {
	flag := &models.FlaggedAccount{
		UUID:        uuid.NewString(),
		UserID:      userID,
		FlagReason:  reason,
		FlaggedByID: flaggedBy,
		Severity:    severity,
		Description: util.SanitizeForLog(description),
		Status:      models.FlagPending,
	}
	if err := flag.SetEvidence(evidence); err != nil {
		return nil, err
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"flag_reason": reason,
			"severity":    gorm.Expr(severityMergeExpr),
			"description": flag.Description,
			"evidence":    flag.Evidence,
			"status":      models.FlagPending,
			"is_resolved": false,
			"resolved_at": nil,
			"updated_at":  time.Now(),
		}),
	}).Create(flag).Error
	if err != nil {
		return nil, err
	}

	// Re-read: on conflict the insert did not happen, so the returned struct
	// does not reflect the merged row.
	var current models.FlaggedAccount
	if err := s.db.Where("user_id = ?", userID).First(&current).Error; err != nil {
		return nil, err
	}

	metrics.IncAccountFlagged(string(reason))
	s.events.TryLog(userID, models.EventAccountFlagged, current.Severity,
		fmt.Sprintf("account flagged: %s", reason),
		models.EventMetadata{Flags: []string{string(reason)}})

	return &current, nil
}

// AttachRelated records suspected related accounts, skipping ones already linked.
func (s *FlagService) AttachRelated(flag *models.FlaggedAccount, related []models.RelatedAccount) error {
	for _, rel := range related {
		var count int64
		if err := s.db.Model(&models.RelatedAccount{}).
			Where("flagged_account_id = ? AND user_id = ?", flag.ID, rel.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		rel.FlaggedAccountID = flag.ID
		if err := s.db.Create(&rel).Error; err != nil {
			return err
		}
	}
	return nil
}

// Get loads a flag with its review history and related accounts.
func (s *FlagService) Get(flagUUID string) (*models.FlaggedAccount, error) {
	var flag models.FlaggedAccount
	err := s.db.Preload("Reviews").Preload("RelatedAccounts").
		Where("uuid = ?", flagUUID).First(&flag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFlagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

// FlagFilter narrows the paginated flag listing.
type FlagFilter struct {
	Status     string
	Severity   string
	FlagReason string
	IsResolved *bool
	Page       int
	Limit      int
}

// List returns a filtered, paginated page of flags plus the total match count.
func (s *FlagService) List(f FlagFilter) ([]models.FlaggedAccount, int64, error) {
	q := s.db.Model(&models.FlaggedAccount{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.FlagReason != "" {
		q = q.Where("flag_reason = ?", f.FlagReason)
	}
	if f.IsResolved != nil {
		q = q.Where("is_resolved = ?", *f.IsResolved)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	var flags []models.FlaggedAccount
	err := q.Order("updated_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&flags).Error
	return flags, total, err
}

// Review applies an admin decision to a flagged account. The flag mutation,
// the append-only history entry and the user ban run in one transaction so a
// failing ban rolls back the review instead of leaving the record half-applied.
func (s *FlagService) Review(flagUUID string, action models.ReviewAction, notes string, reviewerID uint) (*models.FlaggedAccount, error) {
	notes = util.SanitizeForLog(notes)
	now := time.Now()

	var flag models.FlaggedAccount
	var banApplied models.BanType

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("uuid = ?", flagUUID).First(&flag).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFlagNotFound
			}
			return err
		}

		review := models.FlagReview{
			FlaggedAccountID: flag.ID,
			ReviewerID:       reviewerID,
			Action:           action,
			Notes:            notes,
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		switch action {
		case models.ActionDismissed:
			flag.Status = models.FlagDismissed
			flag.IsResolved = true
			flag.ResolvedAt = &now
			flag.ResolutionNotes = notes

		case models.ActionWarning:
			flag.Status = models.FlagResolved
			flag.IsResolved = true
			flag.ResolvedAt = &now
			flag.ResolutionNotes = notes

		case models.ActionTemporaryBan:
			expires := now.Add(s.cfg.TempBanDuration)
			flag.Status = models.FlagResolved
			flag.IsResolved = true
			flag.ResolvedAt = &now
			flag.ResolutionNotes = notes
			flag.IsBanned = true
			flag.BanType = models.BanTemporary
			flag.BanExpiresAt = &expires
			if err := s.banUser(tx, flag.UserID, string(flag.FlagReason), &expires, false, now); err != nil {
				return err
			}
			banApplied = models.BanTemporary

		case models.ActionPermanentBan:
			flag.Status = models.FlagResolved
			flag.IsResolved = true
			flag.ResolvedAt = &now
			flag.ResolutionNotes = notes
			flag.IsBanned = true
			flag.BanType = models.BanPermanent
			flag.BanExpiresAt = nil
			if err := s.banUser(tx, flag.UserID, string(flag.FlagReason), nil, true, now); err != nil {
				return err
			}
			banApplied = models.BanPermanent

		case models.ActionEscalated:
			flag.Status = models.FlagUnderReview
			flag.Severity = models.SeverityCritical

		default:
			return ErrBadReviewAction
		}

		return tx.Save(&flag).Error
	})
	if err != nil {
		return nil, err
	}

	if banApplied != "" {
		metrics.IncBan(string(banApplied))
		severity := models.SeverityHigh
		if banApplied == models.BanPermanent {
			severity = models.SeverityCritical
		}
		s.events.TryLog(flag.UserID, models.EventAccountBanned, severity,
			fmt.Sprintf("account banned (%s): %s", banApplied, flag.FlagReason),
			models.EventMetadata{Flags: []string{string(flag.FlagReason)}})
		s.notifier.TryCreate(flag.UserID, models.NotificationTypeBan,
			"Account suspended",
			fmt.Sprintf("Your account has been suspended (%s). Reason: %s", banApplied, flag.FlagReason))
		s.notifier.SendExternal("Account banned",
			fmt.Sprintf("user %d banned (%s) for %s by reviewer %d", flag.UserID, banApplied, flag.FlagReason, reviewerID))
	}

	return &flag, nil
}

// banUser applies the ban slice to the user row with a single atomic UPDATE.
// A permanent ban also freezes the wallet.
func (s *FlagService) banUser(tx *gorm.DB, userID uint, reason string, expiresAt *time.Time, freezeWallet bool, now time.Time) error {
	updates := map[string]interface{}{
		"is_active":      false,
		"ban_reason":     reason,
		"banned_at":      now,
		"ban_expires_at": expiresAt,
	}
	if freezeWallet {
		updates["wallet_frozen"] = true
	}
	res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ExpireTemporaryBans reactivates users whose temporary ban has run out,
// clears the flag restrictions and logs the lift. Returns how many users were
// reactivated.
func (s *FlagService) ExpireTemporaryBans(now time.Time) (int, error) {
	var users []models.User
	if err := s.db.Where("is_active = ? AND ban_expires_at IS NOT NULL AND ban_expires_at < ?", false, now).
		Find(&users).Error; err != nil {
		return 0, err
	}

	lifted := 0
	for _, user := range users {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
				"is_active":      true,
				"ban_reason":     "",
				"banned_at":      nil,
				"ban_expires_at": nil,
			}).Error; err != nil {
				return err
			}
			return tx.Model(&models.FlaggedAccount{}).Where("user_id = ?", user.ID).Updates(map[string]interface{}{
				"is_banned":      false,
				"ban_type":       "",
				"ban_expires_at": nil,
			}).Error
		})
		if err != nil {
			return lifted, err
		}
		lifted++
		s.events.TryLog(user.ID, models.EventAccountBanned, models.SeverityLow,
			"temporary ban expired, account reactivated", models.EventMetadata{})
		s.notifier.TryCreate(user.ID, models.NotificationTypeInfo,
			"Suspension lifted", "Your temporary suspension has expired. Welcome back.")
	}
	return lifted, nil
}
