package models

import (
	"encoding/json"
	"time"
)

// VerificationStatus is the lifecycle state of a submitted evidence claim.
// Transitions are one-directional except through the appeal path:
// {pending, needs_review, suspicious} -> {verified, rejected} -> (appeal) -> verified.
type VerificationStatus string

const (
	VerificationPending     VerificationStatus = "pending"
	VerificationVerified    VerificationStatus = "verified"
	VerificationRejected    VerificationStatus = "rejected"
	VerificationNeedsReview VerificationStatus = "needs_review"
	VerificationSuspicious  VerificationStatus = "suspicious"
)

// AppealDecision tracks the outcome of an appeal against a rejection.
type AppealDecision string

const (
	AppealPending  AppealDecision = "pending"
	AppealApproved AppealDecision = "approved"
	AppealRejected AppealDecision = "rejected"
)

// ClaimedStats is the self-reported match performance backing a submission.
// All counters are non-negative; zero values mean "not claimed".
type ClaimedStats struct {
	Kills         int     `json:"kills"`
	Deaths        int     `json:"deaths"`
	Assists       int     `json:"assists"`
	Damage        int     `json:"damage"`
	Accuracy      float64 `json:"accuracy"`
	Headshots     int     `json:"headshots"`
	FinalPosition int     `json:"final_position"`
	MatchMinutes  float64 `json:"match_minutes"`
}

// VerificationFlag is one suspicious element found by the automatic checks.
type VerificationFlag struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// ScreenshotVerification is a claim of match performance backed by a
// screenshot, moving through automatic checks, optional manual review and an
// optional appeal.
type ScreenshotVerification struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	UUID           string `json:"uuid" gorm:"uniqueIndex"`
	MatchUUID      string `json:"match_uuid" gorm:"index"`
	UserID         uint   `json:"user_id" gorm:"index"`
	TournamentUUID string `json:"tournament_uuid" gorm:"index"`
	ScreenshotURL  string `json:"screenshot_url" gorm:"index;type:text"`
	// ImageHash is the hex-encoded difference hash of the screenshot when the
	// image bytes accompanied the submission. Empty when only a URL was given.
	ImageHash string `json:"-" gorm:"index"`
	GameType  string `json:"game_type" gorm:"index"`

	Stats string `json:"stats" gorm:"type:text"` // ClaimedStats JSON

	Status VerificationStatus `json:"status" gorm:"index;default:'pending'"`
	// RiskLevel is derived from the automatic-check flags via the shared
	// risk-scoring rule; it backs the severity filter on the review queue.
	RiskLevel Severity `json:"risk_level" gorm:"index;default:'low'"`

	// Automatic check results.
	ImageQualityScore int    `json:"image_quality_score"`
	QualityIssues     string `json:"quality_issues,omitempty" gorm:"type:text"` // []string JSON
	Flags             string `json:"flags,omitempty" gorm:"type:text"`          // []VerificationFlag JSON

	// Manual review (latest review wins; repeat review overwrites).
	ReviewerID    *uint      `json:"reviewer_id,omitempty"`
	ReviewScore   *int       `json:"review_score,omitempty"`
	ReviewNotes   string     `json:"review_notes,omitempty" gorm:"type:text"`
	Discrepancies string     `json:"discrepancies,omitempty" gorm:"type:text"` // []string JSON
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`

	// Final decision.
	Approved        bool   `json:"approved"`
	ApproverID      *uint  `json:"approver_id,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	// Appeal.
	AppealRequested  bool           `json:"appeal_requested"`
	AppealReason     string         `json:"appeal_reason,omitempty" gorm:"type:text"`
	AppealDecision   AppealDecision `json:"appeal_decision,omitempty"`
	AppealReviewerID *uint          `json:"appeal_reviewer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Decided reports whether the submission has reached a terminal status.
func (v *ScreenshotVerification) Decided() bool {
	return v.Status == VerificationVerified || v.Status == VerificationRejected
}

// SetStats serializes the claimed stats.
func (v *ScreenshotVerification) SetStats(s ClaimedStats) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	v.Stats = string(raw)
	return nil
}

// ParsedStats deserializes the claimed stats.
func (v *ScreenshotVerification) ParsedStats() (ClaimedStats, error) {
	var s ClaimedStats
	if v.Stats == "" {
		return s, nil
	}
	err := json.Unmarshal([]byte(v.Stats), &s)
	return s, err
}

// SetFlags serializes the automatic-check flags.
func (v *ScreenshotVerification) SetFlags(flags []VerificationFlag) error {
	raw, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	v.Flags = string(raw)
	return nil
}

// ParsedFlags deserializes the automatic-check flags.
func (v *ScreenshotVerification) ParsedFlags() ([]VerificationFlag, error) {
	if v.Flags == "" {
		return nil, nil
	}
	var flags []VerificationFlag
	err := json.Unmarshal([]byte(v.Flags), &flags)
	return flags, err
}

// HasFlag reports whether the automatic checks raised a flag of the given type.
func (v *ScreenshotVerification) HasFlag(flagType string) bool {
	flags, err := v.ParsedFlags()
	if err != nil {
		return false
	}
	for _, f := range flags {
		if f.Type == flagType {
			return true
		}
	}
	return false
}
