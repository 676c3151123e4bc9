package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "KAFKA_BROKERS", "RATE_LIMIT", "RATE_WINDOW_SEC",
		"RESEND_FROM_EMAIL", "FRONTEND_URL", "PUBLIC_URL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, "noreply@viveo.rs", cfg.FromEmail)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, "http://localhost:8080", cfg.PublicURL)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("RATE_WINDOW_SEC", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric redis db", "REDIS_DB", "primary"},
		{"non-numeric rate limit", "RATE_LIMIT", "lots"},
		{"zero rate limit", "RATE_LIMIT", "0"},
		{"negative window", "RATE_WINDOW_SEC", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
