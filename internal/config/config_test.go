package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("ELEVENLABS_API_KEY", "xi-key")
	t.Setenv("SYNC_LOOKBACK_MIN", "20")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "xi-key", cfg.ElevenLabs.APIKey)
	assert.Equal(t, 20*time.Minute, cfg.Call.SyncLookback())
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "ELEVENLABS_BASE_URL", "KEEPALIVE_INTERVAL_SEC", "SYNC_INTERVAL_SEC", "LOG_MAX_SIZE_MB", "MINIO_ENDPOINT"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "https://api.elevenlabs.io", cfg.ElevenLabs.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Call.KeepaliveInterval())
	assert.Zero(t, cfg.Call.SyncInterval())
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.False(t, cfg.MinIO.Enabled())
}

func TestValidate(t *testing.T) {
	cfg := &AppConfig{
		Database:   DatabaseConfig{Host: "h", User: "u", Name: "n"},
		Twilio:     TwilioConfig{AccountSID: "AC1", AuthToken: "tok"},
		ElevenLabs: ElevenLabsConfig{APIKey: "key"},
		Call:       CallConfig{KeepaliveIntervalSec: 30},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Twilio = TwilioConfig{}
	cfg.ElevenLabs.APIKey = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TWILIO_ACCOUNT_SID")
	assert.Contains(t, err.Error(), "ELEVENLABS_API_KEY")
	assert.NotContains(t, err.Error(), "DB_HOST")
}

func TestLogLocation(t *testing.T) {
	assert.Equal(t, time.UTC, LogConfig{}.Location())
	assert.Equal(t, time.UTC, LogConfig{Timezone: "Not/AZone"}.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
