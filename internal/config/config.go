// Package config loads runtime configuration from the environment with
// defaults and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	PostgresURL string

	// Kafka cluster (comma separated). Empty disables the notification
	// pipeline: events are dropped at debug level.
	KafkaBrokers []string

	// Redis backs the per-user rate limiter. Empty disables limiting.
	RedisAddr string
	RedisDB   int

	RateLimit  int
	RateWindow time.Duration

	StorageURL string
	StorageKey string

	AuthURL string
	AuthKey string

	EmailBaseURL string
	EmailAPIKey  string
	FromEmail    string

	FrontendURL string

	// PublicURL is the externally reachable base URL of the API itself,
	// used to build download links in emails.
	PublicURL string
}

func Load() (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		PostgresURL:  os.Getenv("POSTGRES_URL"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RateLimit:    60,
		RateWindow:   time.Minute,
		StorageURL:   os.Getenv("STORAGE_URL"),
		StorageKey:   os.Getenv("STORAGE_KEY"),
		AuthURL:      os.Getenv("AUTH_URL"),
		AuthKey:      os.Getenv("AUTH_KEY"),
		EmailBaseURL: os.Getenv("EMAIL_BASE_URL"),
		EmailAPIKey:  os.Getenv("RESEND_API_KEY"),
		FromEmail:    getEnv("RESEND_FROM_EMAIL", "noreply@viveo.rs"),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		PublicURL:    getEnv("PUBLIC_URL", "http://localhost:8080"),
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("RATE_LIMIT", cfg.RateLimit)
	if err != nil {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT must be > 0")
	}
	cfg.RateLimit = rateLimit

	windowSec, err := getEnvInt("RATE_WINDOW_SEC", int(cfg.RateWindow.Seconds()))
	if err != nil {
		return Config{}, fmt.Errorf("invalid RATE_WINDOW_SEC: %w", err)
	}
	if windowSec <= 0 {
		return Config{}, fmt.Errorf("RATE_WINDOW_SEC must be > 0")
	}
	cfg.RateWindow = time.Duration(windowSec) * time.Second

	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
