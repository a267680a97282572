package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "HTTP_PORT", "TIMEZONE", "TOKEN_TTL", "RATE_LIMIT_PER_MIN",
		"MAX_UPLOAD_MB", "CLOUDINARY_FOLDER", "CLEANUP_SCHEDULE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, int64(5)<<20, cfg.MaxUploadBytes)
	assert.Equal(t, "attendance-app", cfg.CloudinaryFolder)
	assert.Equal(t, "0 3 * * *", cfg.CleanupSchedule)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("RATE_LIMIT_PER_MIN", "10")
	t.Setenv("MAX_UPLOAD_MB", "2")

	cfg := Load()
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.RateLimitPerMin)
	assert.Equal(t, int64(2)<<20, cfg.MaxUploadBytes)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("TOKEN_TTL", "tomorrow")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")

	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
}

func TestLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	assert.NoError(t, err)
	assert.Equal(t, kolkata, App{Timezone: "Asia/Kolkata"}.Location())

	// Unknown zones fall back to UTC rather than failing startup.
	assert.Equal(t, time.UTC, App{Timezone: "Mars/Olympus"}.Location())
}
