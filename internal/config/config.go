package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SecurityConfig carries the tunable detection thresholds. These were fixed
// magic numbers in earlier iterations; they are named parameters now so rules
// can be tuned per deployment without code changes.
type SecurityConfig struct {
	// DuplicateIPThreshold is how many distinct accounts (the current login
	// included) must share a login IP before the account is flagged for
	// multiple_ip_addresses.
	DuplicateIPThreshold int
	// HighFlagEscalationThreshold is how many high-severity analyzer rules must
	// fire on one snapshot before the account is flagged.
	HighFlagEscalationThreshold int
	// TempBanDuration is how long a temporary_ban review action lasts.
	TempBanDuration time.Duration
	// ImageQualityReviewThreshold routes submissions scoring below it to the
	// manual review queue.
	ImageQualityReviewThreshold int
	// ImageHashMaxDistance is the maximum Hamming distance between two
	// screenshot difference-hashes still considered the same image.
	ImageHashMaxDistance int
}

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	JWTSecret    string
	TokenTTL     time.Duration
	LogDir       string
	// NotifyURLs is a comma-separated list of shoutrrr destinations for
	// critical security pushes. Empty disables external notifications.
	NotifyURLs string

	Security SecurityConfig
}

// Load reads env vars and falls back to defaults so the server can boot with
// zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:  getEnv("ARENA_ENV", "development"),
		HTTPPort:     getEnv("ARENA_HTTP_PORT", "8080"),
		DatabasePath: getEnv("ARENA_DB_PATH", filepath.Join("data", "arena.db")),
		JWTSecret:    getEnv("ARENA_JWT_SECRET", "dev-only-secret"),
		TokenTTL:     getDuration("ARENA_TOKEN_TTL", 24*time.Hour),
		LogDir:       getEnv("ARENA_LOG_DIR", filepath.Join("data", "logs")),
		NotifyURLs:   getEnv("ARENA_NOTIFY_URLS", ""),
		Security: SecurityConfig{
			DuplicateIPThreshold:        getInt("ARENA_DUP_IP_THRESHOLD", 3),
			HighFlagEscalationThreshold: getInt("ARENA_HIGH_FLAG_THRESHOLD", 2),
			TempBanDuration:             getDuration("ARENA_TEMP_BAN_DURATION", 7*24*time.Hour),
			ImageQualityReviewThreshold: getInt("ARENA_QUALITY_REVIEW_THRESHOLD", 50),
			ImageHashMaxDistance:        getInt("ARENA_IMAGE_HASH_DISTANCE", 10),
		},
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production hardening.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}

	return fallback
}
