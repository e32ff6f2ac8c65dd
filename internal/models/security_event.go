package models

import (
	"encoding/json"
	"time"
)

// EventType classifies a security event.
type EventType string

const (
	EventDuplicateIP        EventType = "duplicate_ip"
	EventSuspiciousActivity EventType = "suspicious_activity"
	EventMultipleAccounts   EventType = "multiple_accounts"
	EventUnusualPerformance EventType = "unusual_performance"
	EventServerLogAnomaly   EventType = "server_log_anomaly"
	EventScreenshotFailed   EventType = "screenshot_verification_failed"
	EventAccountFlagged     EventType = "account_flagged"
	EventAccountBanned      EventType = "account_banned"
	EventLoginAttempt       EventType = "login_attempt"
	EventFailedVerification EventType = "failed_verification"
)

// ReviewStatus tracks an event through the admin queue.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewReviewed  ReviewStatus = "reviewed"
	ReviewResolved  ReviewStatus = "resolved"
	ReviewDismissed ReviewStatus = "dismissed"
)

// EventMetadata is the structured context captured alongside an event. It is
// serialized into the Metadata text column; IP is duplicated into its own
// indexed column so the duplicate-IP detector can query it directly.
type EventMetadata struct {
	IP             string             `json:"ip,omitempty"`
	UserAgent      string             `json:"user_agent,omitempty"`
	MatchUUID      string             `json:"match_uuid,omitempty"`
	MatchedUserIDs []uint             `json:"matched_user_ids,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
	Flags          []string           `json:"flags,omitempty"`
}

// SecurityEvent is an immutable record of one observed occurrence. Core fields
// are never mutated after creation; only the review fields may change.
type SecurityEvent struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UUID        string    `json:"uuid" gorm:"uniqueIndex"`
	UserID      uint      `json:"user_id" gorm:"index"`
	EventType   EventType `json:"event_type" gorm:"index"`
	Severity    Severity  `json:"severity" gorm:"index"`
	Description string    `json:"description" gorm:"type:text"`
	IP          string    `json:"ip,omitempty" gorm:"index"`
	Metadata    string    `json:"metadata,omitempty" gorm:"type:text"`

	// Escalated is set automatically for critical events so the review
	// dashboard can surface them first.
	Escalated bool `json:"escalated" gorm:"default:false"`

	ReviewStatus ReviewStatus `json:"review_status" gorm:"index;default:'pending'"`
	ReviewerID   *uint        `json:"reviewer_id,omitempty"`
	ReviewNotes  string       `json:"review_notes,omitempty" gorm:"type:text"`
	ActionTaken  string       `json:"action_taken,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetMetadata serializes the structured metadata and mirrors the IP column.
func (e *SecurityEvent) SetMetadata(meta EventMetadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	e.Metadata = string(raw)
	if meta.IP != "" {
		e.IP = meta.IP
	}
	return nil
}

// ParsedMetadata deserializes the metadata column.
func (e *SecurityEvent) ParsedMetadata() (EventMetadata, error) {
	var meta EventMetadata
	if e.Metadata == "" {
		return meta, nil
	}
	err := json.Unmarshal([]byte(e.Metadata), &meta)
	return meta, err
}
