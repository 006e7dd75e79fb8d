package app

import (
	"os"
	"strconv"
	"time"

	"github.com/nexushq/nexus/pkg/jwtx"
)

type Config struct {
	Issuer       string // Issuer claim for tokens (default: nexus)
	DatabaseFile string // Path to SQLite database file (default: ./nexus.db)
	PepperFile   string // Path to password hashing pepper file (default: ./pepper)
	KeySeedFile  string // Optional: path to 32-byte Ed25519 seed; empty means ephemeral keys

	AccessTokenTTL  time.Duration // Lifetime of access tokens (default: 1h)
	PendingTokenTTL time.Duration // Lifetime of 2FA pending tokens (default: 5m)

	AdminEmail    string // Optional: seed admin email when the user table is empty
	AdminPassword string // Optional: seed admin password

	BrevoAPIKey string // Optional: enables outbound email when set
	MailFrom    string // Sender address for outbound email
	MailName    string // Sender display name for outbound email
	ResetURL    string // Base URL the password reset link points at

	UploadDir string // Directory avatar files are stored in (default: ./uploads)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	AuditRetention       time.Duration // Audit entries older than this are pruned (default: 90 days)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("NEXUS_ISSUER", "nexus"),
		DatabaseFile: getEnvOrDefault("NEXUS_DATABASE_FILE", "nexus.db"),
		PepperFile:   getEnvOrDefault("NEXUS_PEPPER_FILE", "pepper"),
		KeySeedFile:  os.Getenv("NEXUS_KEY_SEED_FILE"),

		AccessTokenTTL:  getEnvDurationOrDefault("NEXUS_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		PendingTokenTTL: getEnvDurationOrDefault("NEXUS_PENDING_TOKEN_TTL", jwtx.DefaultPendingTokenTTL),

		AdminEmail:    os.Getenv("NEXUS_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("NEXUS_ADMIN_PASSWORD"),

		BrevoAPIKey: os.Getenv("BREVO_API_KEY"),
		MailFrom:    getEnvOrDefault("MAIL_FROM", "no-reply@nexus.local"),
		MailName:    getEnvOrDefault("MAIL_FROM_NAME", "Nexus"),
		ResetURL:    getEnvOrDefault("NEXUS_RESET_URL", "http://localhost:3000/reset-password"),

		UploadDir: getEnvOrDefault("NEXUS_UPLOAD_DIR", "uploads"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		AuditRetention:       getEnvDurationOrDefault("NEXUS_AUDIT_RETENTION", 90*24*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Accept durations ("1h", "30m") or plain integer minutes.
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
