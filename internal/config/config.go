package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for the report archive.
// The archive is optional: an empty Endpoint disables it.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether report archiving is configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// TwilioConfig holds the telephony account credentials.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
}

// ElevenLabsConfig holds conversational agent API settings.
type ElevenLabsConfig struct {
	APIKey     string
	BaseURL    string
	TimeoutSec int
}

// Timeout returns the REST request timeout.
func (c ElevenLabsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CallConfig tunes the media bridge and the conversation analysis sync.
type CallConfig struct {
	KeepaliveIntervalSec int
	SyncIntervalSec      int
	SyncLookbackMin      int
	SyncConcurrency      int
}

// KeepaliveInterval is the period between agent keepalive pings.
func (c CallConfig) KeepaliveInterval() time.Duration {
	return time.Duration(c.KeepaliveIntervalSec) * time.Second
}

// SyncInterval is the period of the background analysis sync. Zero disables it.
func (c CallConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSec) * time.Second
}

// SyncLookback is how far back the analysis sync looks for calls.
func (c CallConfig) SyncLookback() time.Duration {
	return time.Duration(c.SyncLookbackMin) * time.Minute
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Timezone   string
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c LogConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	// AppHost is the public host used to build callback URLs. When empty the
	// Host header of the incoming request is used.
	AppHost    string
	Port       string
	Database   DatabaseConfig
	MinIO      MinIOConfig
	Twilio     TwilioConfig
	ElevenLabs ElevenLabsConfig
	Call       CallConfig
	Log        LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", ""),
		Port:    getEnv("PORT", "8000"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:     getEnv("ELEVENLABS_API_KEY", ""),
			BaseURL:    getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
			TimeoutSec: getEnvInt("ELEVENLABS_TIMEOUT_SEC", 15),
		},
		Call: CallConfig{
			KeepaliveIntervalSec: getEnvInt("KEEPALIVE_INTERVAL_SEC", 30),
			SyncIntervalSec:      getEnvInt("SYNC_INTERVAL_SEC", 0),
			SyncLookbackMin:      getEnvInt("SYNC_LOOKBACK_MIN", 200),
			SyncConcurrency:      getEnvInt("SYNC_CONCURRENCY", 4),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
			Timezone:   getEnv("LOG_TIMEZONE", "UTC"),
		},
	}
}

// Validate reports every missing required setting at once.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
		errs = append(errs, errors.New("DB_HOST, DB_USER and DB_NAME are required"))
	}
	if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required"))
	}
	if c.ElevenLabs.APIKey == "" {
		errs = append(errs, errors.New("ELEVENLABS_API_KEY is required"))
	}
	if c.Call.KeepaliveIntervalSec <= 0 {
		errs = append(errs, errors.New("KEEPALIVE_INTERVAL_SEC must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
