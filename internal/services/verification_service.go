package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	// Screenshot decoding for the perceptual duplicate check.
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/config"
	"github.com/arenahq/arena/backend/internal/logger"
	"github.com/arenahq/arena/backend/internal/metrics"
	"github.com/arenahq/arena/backend/internal/models"
	"github.com/arenahq/arena/backend/internal/util"
)

var (
	ErrVerificationNotFound = errors.New("screenshot verification not found")
	ErrInvalidSubmission    = errors.New("invalid submission")
	ErrInvalidReviewScore   = errors.New("review score must be between 0 and 100")
	ErrAppealNotAllowed     = errors.New("appeal is only allowed on rejected submissions")
	ErrAppealNotPending     = errors.New("no pending appeal on this submission")
	ErrNotSubmitter         = errors.New("only the submitter may appeal")
	ErrBadAppealDecision    = errors.New("appeal decision must be approved or rejected")
)

const (
	qualityBaseline = 100
	qualityPenalty  = 15

	verifiedScoreThreshold = 80
	rejectedScoreThreshold = 50
)

// Automatic-check flag types.
const (
	FlagStatsTooHigh        = "stats_too_high"
	FlagImpossiblePerf      = "impossible_performance"
	FlagDuplicateScreenshot = "duplicate_screenshot"
	FlagInvalidPosition     = "invalid_position"
)

// SubmitRequest is a claim of match performance backed by a screenshot.
// ImageData optionally carries the raw screenshot bytes; when present the
// duplicate check extends from exact URL matching to perceptual hashing.
type SubmitRequest struct {
	MatchUUID      string
	UserID         uint
	TournamentUUID string
	ScreenshotURL  string
	ImageData      []byte
	GameType       string
	Stats          models.ClaimedStats
}

// VerificationService runs evidence submissions through automatic checks,
// routes inconclusive ones to manual review, and handles the appeal path.
type VerificationService struct {
	db     *gorm.DB
	cfg    config.SecurityConfig
	events *EventService
}

func NewVerificationService(db *gorm.DB, cfg config.SecurityConfig, events *EventService) *VerificationService {
	return &VerificationService{db: db, cfg: cfg, events: events}
}

// Submit runs the automatic checks synchronously and stores the classified
// submission. The record is never externally visible in a pre-check state.
func (s *VerificationService) Submit(req SubmitRequest) (*models.ScreenshotVerification, error) {
	if req.MatchUUID == "" || req.UserID == 0 || req.ScreenshotURL == "" || req.GameType == "" {
		return nil, fmt.Errorf("%w: match, user, screenshot and game type are required", ErrInvalidSubmission)
	}
	if req.Stats.Kills < 0 || req.Stats.Deaths < 0 || req.Stats.Assists < 0 ||
		req.Stats.Headshots < 0 || req.Stats.Accuracy < 0 || req.Stats.MatchMinutes < 0 {
		return nil, fmt.Errorf("%w: claimed stats must be non-negative", ErrInvalidSubmission)
	}

	sub := &models.ScreenshotVerification{
		UUID:           uuid.NewString(),
		MatchUUID:      req.MatchUUID,
		UserID:         req.UserID,
		TournamentUUID: req.TournamentUUID,
		ScreenshotURL:  req.ScreenshotURL,
		GameType:       strings.ToLower(req.GameType),
	}
	if err := sub.SetStats(req.Stats); err != nil {
		return nil, err
	}

	flags, issues := s.runAutomaticChecks(sub, req)

	score := qualityBaseline - qualityPenalty*(len(flags)+len(issues))
	if score < 0 {
		score = 0
	}
	sub.ImageQualityScore = score
	if err := sub.SetFlags(flags); err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		sub.QualityIssues = `["` + strings.Join(issues, `","`) + `"]`
	}

	severities := make([]models.Severity, len(flags))
	for i, f := range flags {
		severities[i] = f.Severity
	}
	sub.RiskLevel = models.RiskLevel(severities)

	switch {
	case len(flags) > 0:
		sub.Status = models.VerificationSuspicious
	case score < s.cfg.ImageQualityReviewThreshold:
		sub.Status = models.VerificationNeedsReview
	default:
		sub.Status = models.VerificationPending
	}

	if err := s.db.Create(sub).Error; err != nil {
		return nil, err
	}
	metrics.IncVerification(string(sub.Status))

	if sub.Status == models.VerificationSuspicious {
		flagTypes := make([]string, len(flags))
		for i, f := range flags {
			flagTypes[i] = f.Type
		}
		s.events.TryLog(req.UserID, models.EventScreenshotFailed, sub.RiskLevel,
			fmt.Sprintf("automatic checks flagged screenshot for match %s: %s", req.MatchUUID, strings.Join(flagTypes, ", ")),
			models.EventMetadata{MatchUUID: req.MatchUUID, Flags: flagTypes})
	}

	return sub, nil
}

// runAutomaticChecks returns the suspicious elements and the non-suspicious
// quality issues found in a submission.
func (s *VerificationService) runAutomaticChecks(sub *models.ScreenshotVerification, req SubmitRequest) ([]models.VerificationFlag, []string) {
	var flags []models.VerificationFlag
	var issues []string

	if req.Stats.Kills > 30 {
		flags = append(flags, models.VerificationFlag{
			Type:        FlagStatsTooHigh,
			Description: fmt.Sprintf("claimed %d kills exceeds the plausible maximum", req.Stats.Kills),
			Severity:    models.SeverityHigh,
		})
	}
	if req.Stats.Kills > 0 && req.Stats.Deaths == 0 {
		flags = append(flags, models.VerificationFlag{
			Type:        FlagImpossiblePerf,
			Description: "kills claimed with zero deaths",
			Severity:    models.SeverityHigh,
		})
	}
	if sub.GameType == "bgmi" && req.Stats.FinalPosition < 1 {
		flags = append(flags, models.VerificationFlag{
			Type:        FlagInvalidPosition,
			Description: "BGMI final position must be 1 or greater",
			Severity:    models.SeverityMedium,
		})
	}

	if len(req.ImageData) > 0 {
		img, _, err := image.Decode(bytes.NewReader(req.ImageData))
		if err != nil {
			issues = append(issues, "unreadable_image")
		} else {
			bounds := img.Bounds()
			if bounds.Dx() < 640 || bounds.Dy() < 360 {
				issues = append(issues, "low_resolution")
			}
			if hash, err := goimagehash.DifferenceHash(img); err == nil {
				sub.ImageHash = fmt.Sprintf("%016x", hash.GetHash())
			}
		}
	} else if !strings.HasPrefix(req.ScreenshotURL, "https://") {
		issues = append(issues, "unverifiable_source")
	}

	if dup, err := s.isDuplicate(req.ScreenshotURL, sub.ImageHash); err != nil {
		logger.Log().WithError(err).Warn("duplicate screenshot check failed")
	} else if dup {
		flags = append(flags, models.VerificationFlag{
			Type:        FlagDuplicateScreenshot,
			Description: "screenshot already submitted as evidence",
			Severity:    models.SeverityHigh,
		})
	}

	return flags, issues
}

// isDuplicate reports reused evidence: an exact URL match against any prior
// submission, or a perceptual-hash distance within the configured threshold
// when the image bytes were supplied.
func (s *VerificationService) isDuplicate(url, hashHex string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.ScreenshotVerification{}).
		Where("screenshot_url = ?", url).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if hashHex == "" {
		return false, nil
	}

	bits, err := strconv.ParseUint(hashHex, 16, 64)
	if err != nil {
		return false, err
	}
	candidate := goimagehash.NewImageHash(bits, goimagehash.DHash)

	var priorHashes []string
	if err := s.db.Model(&models.ScreenshotVerification{}).
		Where("image_hash <> ''").
		Pluck("image_hash", &priorHashes).Error; err != nil {
		return false, err
	}
	for _, prior := range priorHashes {
		priorBits, err := strconv.ParseUint(prior, 16, 64)
		if err != nil {
			continue
		}
		distance, err := candidate.Distance(goimagehash.NewImageHash(priorBits, goimagehash.DHash))
		if err != nil {
			continue
		}
		if distance <= s.cfg.ImageHashMaxDistance {
			return true, nil
		}
	}
	return false, nil
}

// ManualReview records a human verdict. Score thresholds decide the outcome:
// 80 and above verifies, below 50 rejects, anything between stays in the
// review queue. A repeat review overwrites the previous one.
func (s *VerificationService) ManualReview(subUUID string, reviewerID uint, score int, notes string, discrepancies []string, rejectionReason string) (*models.ScreenshotVerification, error) {
	if score < 0 || score > 100 {
		return nil, ErrInvalidReviewScore
	}

	sub, err := s.Get(subUUID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sub.ReviewerID = &reviewerID
	sub.ReviewScore = &score
	sub.ReviewNotes = util.SanitizeForLog(notes)
	sub.ReviewedAt = &now
	if len(discrepancies) > 0 {
		sub.Discrepancies = `["` + strings.Join(discrepancies, `","`) + `"]`
	}

	switch {
	case score >= verifiedScoreThreshold:
		sub.Status = models.VerificationVerified
		sub.Approved = true
		sub.ApproverID = &reviewerID
		sub.RejectionReason = ""
	case score < rejectedScoreThreshold:
		sub.Status = models.VerificationRejected
		sub.Approved = false
		if rejectionReason == "" {
			rejectionReason = "manual review score below threshold"
		}
		sub.RejectionReason = util.SanitizeForLog(rejectionReason)
		s.events.TryLog(sub.UserID, models.EventScreenshotFailed, models.SeverityMedium,
			fmt.Sprintf("screenshot for match %s rejected on manual review: %s", sub.MatchUUID, sub.RejectionReason),
			models.EventMetadata{MatchUUID: sub.MatchUUID})
	default:
		sub.Status = models.VerificationNeedsReview
	}

	if err := s.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// Appeal opens an appeal against a rejection. Only the submitter may appeal,
// and only while the submission is rejected.
func (s *VerificationService) Appeal(subUUID string, userID uint, reason string) (*models.ScreenshotVerification, error) {
	sub, err := s.Get(subUUID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, ErrNotSubmitter
	}
	if sub.Status != models.VerificationRejected {
		return nil, ErrAppealNotAllowed
	}

	sub.AppealRequested = true
	sub.AppealReason = util.SanitizeForLog(reason)
	sub.AppealDecision = models.AppealPending
	if err := s.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// ResolveAppeal closes a pending appeal. Approval is the only path back from
// rejected to verified; a rejected appeal leaves the submission rejected.
func (s *VerificationService) ResolveAppeal(subUUID string, decision models.AppealDecision, reviewerID uint) (*models.ScreenshotVerification, error) {
	if decision != models.AppealApproved && decision != models.AppealRejected {
		return nil, ErrBadAppealDecision
	}

	sub, err := s.Get(subUUID)
	if err != nil {
		return nil, err
	}
	if !sub.AppealRequested || sub.AppealDecision != models.AppealPending {
		return nil, ErrAppealNotPending
	}

	sub.AppealDecision = decision
	sub.AppealReviewerID = &reviewerID
	if decision == models.AppealApproved {
		sub.Status = models.VerificationVerified
		sub.Approved = true
		sub.ApproverID = &reviewerID
		sub.RejectionReason = ""
	}
	if err := s.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// Get loads a submission by its public id.
func (s *VerificationService) Get(subUUID string) (*models.ScreenshotVerification, error) {
	var sub models.ScreenshotVerification
	err := s.db.Where("uuid = ?", subUUID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// VerificationFilter narrows the paginated queue listing.
type VerificationFilter struct {
	Status   string
	GameType string
	Severity string
	Page     int
	Limit    int
}

// List returns a filtered, paginated page of submissions plus the total count.
func (s *VerificationService) List(f VerificationFilter) ([]models.ScreenshotVerification, int64, error) {
	q := s.db.Model(&models.ScreenshotVerification{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.GameType != "" {
		q = q.Where("game_type = ?", strings.ToLower(f.GameType))
	}
	if f.Severity != "" {
		q = q.Where("risk_level = ?", f.Severity)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	var subs []models.ScreenshotVerification
	err := q.Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&subs).Error
	return subs, total, err
}
