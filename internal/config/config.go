// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Archive  ArchiveConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies the embedded schema on startup (default: false)
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"false"`
}

// ImportConfig holds bulk import processing settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted file content in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of imports running at once (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// DefaultPassword is assigned to imported users without a password column value
	DefaultPassword string `env:"IMPORT_DEFAULT_PASSWORD" default:"ChangeMe123!"`

	// ProgressInterval is how many rows pass between counter flushes (default: 25)
	ProgressInterval int `env:"IMPORT_PROGRESS_INTERVAL" default:"25"`
}

// AuthConfig selects and configures the identity provider used for user imports.
type AuthConfig struct {
	// Provider is "gotrue" (managed auth admin API) or "local" (default: gotrue)
	Provider string `env:"AUTH_PROVIDER" default:"gotrue"`

	// GoTrueURL is the base URL of the auth service, e.g. https://xyz.supabase.co/auth/v1
	GoTrueURL string `env:"AUTH_GOTRUE_URL" envAlt:"SUPABASE_AUTH_URL"`

	// ServiceRoleKey authorizes admin calls against the auth service
	ServiceRoleKey string `env:"AUTH_SERVICE_ROLE_KEY" envAlt:"SUPABASE_SERVICE_ROLE_KEY"`

	// RequestTimeout bounds a single auth admin call (default: 10s)
	RequestTimeout time.Duration `env:"AUTH_REQUEST_TIMEOUT" default:"10s"`

	// BcryptCost is the hashing cost for the local provider (default: 10)
	BcryptCost int `env:"AUTH_BCRYPT_COST" default:"10"`
}

// RedisConfig holds the optional progress broadcast settings.
type RedisConfig struct {
	// URL enables Redis progress publishing when set, e.g. redis://localhost:6379/0
	URL string `env:"REDIS_URL"`

	// ProgressTTL is how long progress snapshots are retained (default: 1h)
	ProgressTTL time.Duration `env:"REDIS_PROGRESS_TTL" default:"1h"`
}

// ArchiveConfig holds raw upload archiving settings.
type ArchiveConfig struct {
	// Bucket enables S3 archiving of uploaded files when set
	Bucket string `env:"ARCHIVE_S3_BUCKET"`

	// Region is the AWS region of the bucket (default: us-east-1)
	Region string `env:"ARCHIVE_S3_REGION" envAlt:"AWS_REGION" default:"us-east-1"`

	// Prefix is prepended to every object key (default: imports)
	Prefix string `env:"ARCHIVE_S3_PREFIX" default:"imports"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for import processing endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey rejects /api requests without a valid key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// AllowedOrigins is the CORS allow list for the dashboard (default: *)
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
