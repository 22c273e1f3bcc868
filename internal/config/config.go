package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port             string
	DataAPIURL       string
	DataAPIKey       string
	DatabaseURL      string
	JWTSecret        string
	TokenTTL         time.Duration
	RateLimitSignup  RateLimitConfig
	AnalyticsBaseURL string
	VerifyEmailMX    bool
}

// ErrNoBackend is returned when no persistence backend is configured.
var ErrNoBackend = errors.New("either DATABASE_URL or both DATA_API_URL and DATA_API_KEY must be set")

// Load reads configuration from environment variables and applies sane
// defaults. The persistence collaborator carries no in-repo default: the
// hosted data API needs both its endpoint and credential, a direct Postgres
// connection needs its DSN.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DataAPIURL:       os.Getenv("DATA_API_URL"),
		DataAPIKey:       os.Getenv("DATA_API_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:         parseDuration(getEnv("JWT_TTL", "24h")),
		AnalyticsBaseURL: os.Getenv("ANALYTICS_BASE_URL"),
		VerifyEmailMX:    parseBool(getEnv("VERIFY_EMAIL_MX", "false")),
	}

	if cfg.DatabaseURL == "" && (cfg.DataAPIURL == "" || cfg.DataAPIKey == "") {
		return nil, ErrNoBackend
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SIGNUP", "30/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SIGNUP value: %w", err)
	}
	cfg.RateLimitSignup = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func parseBool(input string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	return b
}
