package models

import "time"

// TournamentStatus tracks a tournament through its schedule.
type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentLive      TournamentStatus = "live"
	TournamentCompleted TournamentStatus = "completed"
	TournamentCancelled TournamentStatus = "cancelled"
)

// Tournament is the read-model context the security subsystem resolves
// submissions against.
type Tournament struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UUID      string           `json:"uuid" gorm:"uniqueIndex"`
	Name      string           `json:"name"`
	GameType  string           `json:"game_type" gorm:"index"` // e.g. "bgmi", "freefire", "codm"
	EntryFee  int64            `json:"entry_fee"`              // paise
	PrizePool int64            `json:"prize_pool"`             // paise
	Status    TournamentStatus `json:"status" gorm:"index;default:'upcoming'"`
	StartsAt  time.Time        `json:"starts_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
