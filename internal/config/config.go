package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// Worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Auth
	JWTSecret        string
	AccessTokenTTL   time.Duration
	PasswordResetTTL time.Duration

	// Competitions
	LeaderboardCacheTTL    time.Duration
	ReminderLeadTimes      []time.Duration
	ReminderPollInterval   time.Duration
	MaxCompetitionDuration time.Duration

	// Email
	EmailAPIURL string
	EmailAPIKey string
	EmailSender string
	FrontendURL string
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		QueueSize:     getEnvInt("QUEUE_SIZE", 10000),
		BatchSize:     getEnvInt("BATCH_SIZE", 200),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),

		AccessTokenTTL:   getEnvDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		PasswordResetTTL: getEnvDuration("PASSWORD_RESET_TTL", 1*time.Hour),

		LeaderboardCacheTTL:    getEnvDuration("LEADERBOARD_CACHE_TTL", 30*time.Second),
		ReminderPollInterval:   getEnvDuration("REMINDER_POLL_INTERVAL", 1*time.Minute),
		MaxCompetitionDuration: getEnvDuration("MAX_COMPETITION_DURATION", 7*24*time.Hour),

		EmailAPIURL: getEnv("EMAIL_API_URL", "https://api.brevo.com/v3/smtp/email"),
		EmailAPIKey: getEnv("EMAIL_API_KEY", ""),
		EmailSender: getEnv("EMAIL_SENDER", "noreply@thinkly.app"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	leads, err := parseDurations(getEnv("REMINDER_LEAD_TIMES", "24h,1h"))
	if err != nil {
		return nil, fmt.Errorf("REMINDER_LEAD_TIMES: %w", err)
	}
	cfg.ReminderLeadTimes = leads

	// Critical configuration - fail if missing
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = getEnvRequired("JWT_SECRET"); err != nil {
		return nil, err
	}
	if len(cfg.JWTSecret) < 32 && cfg.Env != "development" {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 bytes outside development")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// parseDurations parses a comma separated list such as "24h,1h".
func parseDurations(s string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, fmt.Errorf("lead time %s must be positive", part)
		}
		out = append(out, d)
	}
	return out, nil
}
