package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "BASE_URL", "DB_DRIVER", "STORAGE_MODE", "QUEUE_MAX_ATTEMPTS", "SHRINK_SCHEDULE"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "local", cfg.StorageMode)
	assert.Equal(t, 5, cfg.QueueMaxAttempts)
	assert.Equal(t, "0 0 3 * * *", cfg.ShrinkSchedule)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_URL", "https://notes.example.com/")
	t.Setenv("QUEUE_MAX_ATTEMPTS", "3")
	t.Setenv("STORAGE_MODE", "gcs-emulator")

	cfg := LoadConfig()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://notes.example.com", cfg.BaseURL)
	assert.Equal(t, 3, cfg.QueueMaxAttempts)
	assert.Equal(t, "gcs-emulator", cfg.StorageMode)
}

func TestLoadConfigIgnoresBadAttempts(t *testing.T) {
	t.Setenv("QUEUE_MAX_ATTEMPTS", "-2")
	assert.Equal(t, 5, LoadConfig().QueueMaxAttempts)
}
