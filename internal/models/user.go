package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a platform account: players who join tournaments and submit
// results, and admins who work the security review queues.
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	UUID         string `json:"uuid" gorm:"uniqueIndex"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	GamerTag     string `json:"gamer_tag" gorm:"index"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Role         string `json:"role" gorm:"default:'player'"` // "player", "admin"

	// Ban slice mutated by the security subsystem. BanExpiresAt nil means the
	// ban is permanent.
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	BanReason    string     `json:"ban_reason,omitempty"`
	BannedAt     *time.Time `json:"banned_at,omitempty"`
	BanExpiresAt *time.Time `json:"ban_expires_at,omitempty"`

	// Wallet balance in paise. Mutated only through atomic updates.
	WalletBalance int64 `json:"wallet_balance" gorm:"default:0"`
	WalletFrozen  bool  `json:"wallet_frozen" gorm:"default:false"`

	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	LastLoginIP         string     `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetPassword hashes and sets the user's password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the provided password with the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsLocked reports whether the account is temporarily locked out after
// repeated failed logins.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && u.LockedUntil.After(time.Now())
}

// BanExpired reports whether a temporary ban has run out. Permanent bans
// never expire.
func (u *User) BanExpired(now time.Time) bool {
	return !u.IsActive && u.BanExpiresAt != nil && u.BanExpiresAt.Before(now)
}

// IsAdmin reports whether the user may access admin-only routes.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
