package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/config"
	"github.com/arenahq/arena/backend/internal/logger"
	"github.com/arenahq/arena/backend/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account temporarily locked after repeated failures")
	ErrAccountBanned      = errors.New("account is banned")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

// Claims is the JWT payload issued on login.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and token verification. Each
// successful login feeds the duplicate-IP detector; detector failures are
// logged and swallowed so they never block the login.
type AuthService struct {
	db      *gorm.DB
	cfg     config.Config
	ipCheck *IPService
}

func NewAuthService(db *gorm.DB, cfg config.Config, ipCheck *IPService) *AuthService {
	return &AuthService{db: db, cfg: cfg, ipCheck: ipCheck}
}

// Register creates a player account.
func (s *AuthService) Register(email, gamerTag, password string) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	user := &models.User{
		UUID:     uuid.NewString(),
		Email:    email,
		GamerTag: gamerTag,
		Role:     "player",
		IsActive: true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates the user and returns a signed JWT. The duplicate-IP
// check runs after the credentials succeed and cannot fail the login.
func (s *AuthService) Login(email, password, ip, userAgent string) (string, *models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if user.IsLocked() {
		return "", nil, ErrAccountLocked
	}
	if !user.IsActive {
		if user.BanExpiresAt != nil {
			return "", nil, fmt.Errorf("%w until %s: %s", ErrAccountBanned,
				user.BanExpiresAt.Format(time.RFC3339), user.BanReason)
		}
		return "", nil, fmt.Errorf("%w: %s", ErrAccountBanned, user.BanReason)
	}

	if !user.CheckPassword(password) {
		s.recordFailedAttempt(&user)
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login":            now,
		"last_login_ip":         ip,
	}).Error; err != nil {
		return "", nil, err
	}

	if _, err := s.ipCheck.CheckLogin(user.ID, ip, userAgent); err != nil {
		logger.WithFields(map[string]interface{}{"user_id": user.ID}).
			WithError(err).Warn("duplicate-ip check failed")
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func (s *AuthService) recordFailedAttempt(user *models.User) {
	attempts := user.FailedLoginAttempts + 1
	updates := map[string]interface{}{"failed_login_attempts": attempts}
	if attempts >= maxFailedLogins {
		lockedUntil := time.Now().Add(lockoutDuration)
		updates["locked_until"] = lockedUntil
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		logger.WithFields(map[string]interface{}{"user_id": user.ID}).
			WithError(err).Warn("failed to record login attempt")
	}
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UUID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// VerifyToken parses and validates a JWT, returning its claims.
func (s *AuthService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetUser loads a user by id.
func (s *AuthService) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
