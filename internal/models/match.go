package models

import "time"

// MatchStatus tracks a scheduled match.
type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
)

// Match is one scheduled game within a tournament. Result submissions
// reference it and feed the verification pipeline.
type Match struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	UUID           string      `json:"uuid" gorm:"uniqueIndex"`
	TournamentUUID string      `json:"tournament_uuid" gorm:"index"`
	GameType       string      `json:"game_type" gorm:"index"`
	Status         MatchStatus `json:"status" gorm:"index;default:'scheduled'"`
	ScheduledAt    time.Time   `json:"scheduled_at"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
