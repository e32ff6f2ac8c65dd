package models

import (
	"encoding/json"
	"time"
)

// FlagReason is the fixed enumeration of causes for flagging an account.
type FlagReason string

const (
	FlagReasonSuspiciousPerformance FlagReason = "suspicious_performance"
	FlagReasonMultipleIPs           FlagReason = "multiple_ip_addresses"
	FlagReasonDuplicateScreenshot   FlagReason = "duplicate_screenshot"
	FlagReasonManualReview          FlagReason = "manual_review"
	FlagReasonStatManipulation      FlagReason = "stat_manipulation"
	FlagReasonAccountSharing        FlagReason = "account_sharing"
)

// FlagStatus tracks a flagged account through the review workflow.
type FlagStatus string

const (
	FlagPending     FlagStatus = "pending"
	FlagUnderReview FlagStatus = "under_review"
	FlagVerified    FlagStatus = "verified"
	FlagDismissed   FlagStatus = "dismissed"
	FlagResolved    FlagStatus = "resolved"
)

// ReviewAction is an admin decision applied to a flagged account.
type ReviewAction string

const (
	ActionDismissed    ReviewAction = "dismissed"
	ActionWarning      ReviewAction = "warning_issued"
	ActionTemporaryBan ReviewAction = "temporary_ban"
	ActionPermanentBan ReviewAction = "permanent_ban"
	ActionEscalated    ReviewAction = "escalated"
)

// BanType distinguishes temporary from permanent restrictions.
type BanType string

const (
	BanTemporary BanType = "temporary"
	BanPermanent BanType = "permanent"
)

// FlagEvidence is the evidence bundle justifying a flag.
type FlagEvidence struct {
	Screenshots        []string           `json:"screenshots,omitempty"`
	ServerLogs         []string           `json:"server_logs,omitempty"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics,omitempty"`
	IPHistory          []string           `json:"ip_history,omitempty"`
	DeviceFingerprints []string           `json:"device_fingerprints,omitempty"`
}

// FlaggedAccount is the standing risk record for a user. The unique index on
// UserID enforces at most one record per user; re-flagging goes through an
// atomic upsert rather than find-then-save.
type FlaggedAccount struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UUID        string     `json:"uuid" gorm:"uniqueIndex"`
	UserID      uint       `json:"user_id" gorm:"uniqueIndex"`
	FlagReason  FlagReason `json:"flag_reason" gorm:"index"`
	FlaggedByID *uint      `json:"flagged_by_id,omitempty"` // nil when raised by a detector
	Severity    Severity   `json:"severity" gorm:"index"`
	Description string     `json:"description" gorm:"type:text"`
	Evidence    string     `json:"evidence,omitempty" gorm:"type:text"` // FlagEvidence JSON

	Status FlagStatus `json:"status" gorm:"index;default:'pending'"`

	// Current restrictions.
	IsBanned             bool       `json:"is_banned" gorm:"default:false"`
	BanType              BanType    `json:"ban_type,omitempty"`
	BanExpiresAt         *time.Time `json:"ban_expires_at,omitempty"`
	VerificationRequired bool       `json:"verification_required" gorm:"default:false"`

	// Resolution.
	IsResolved      bool       `json:"is_resolved" gorm:"index;default:false"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty" gorm:"type:text"`

	Reviews         []FlagReview     `json:"reviews,omitempty" gorm:"foreignKey:FlaggedAccountID"`
	RelatedAccounts []RelatedAccount `json:"related_accounts,omitempty" gorm:"foreignKey:FlaggedAccountID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FlagReview is one entry in the append-only review history. Rows are never
// updated or deleted.
type FlagReview struct {
	ID               uint         `json:"id" gorm:"primaryKey"`
	FlaggedAccountID uint         `json:"flagged_account_id" gorm:"index"`
	ReviewerID       uint         `json:"reviewer_id"`
	Action           ReviewAction `json:"action"`
	Notes            string       `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt        time.Time    `json:"created_at"`
}

// RelatedAccount links a flagged account to another user suspected of sharing
// an identity, device or network with it.
type RelatedAccount struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	FlaggedAccountID uint      `json:"flagged_account_id" gorm:"index"`
	UserID           uint      `json:"user_id" gorm:"index"`
	Relationship     string    `json:"relationship"` // e.g. "shared_ip", "shared_device"
	Confidence       float64   `json:"confidence"`   // 0..1
	CreatedAt        time.Time `json:"created_at"`
}

// SetEvidence serializes the evidence bundle.
func (f *FlaggedAccount) SetEvidence(ev FlagEvidence) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	f.Evidence = string(raw)
	return nil
}

// ParsedEvidence deserializes the evidence bundle.
func (f *FlaggedAccount) ParsedEvidence() (FlagEvidence, error) {
	var ev FlagEvidence
	if f.Evidence == "" {
		return ev, nil
	}
	err := json.Unmarshal([]byte(f.Evidence), &ev)
	return ev, err
}

// Terminal reports whether the flag has reached a terminal status.
func (f *FlaggedAccount) Terminal() bool {
	return f.Status == FlagDismissed || f.Status == FlagResolved
}
