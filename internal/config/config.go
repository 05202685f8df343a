// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// Nested groups are prefixed with their envconfig tag, so Server.Port is
// read from SERVER_PORT.
type Config struct {
	Server   ServerConfig    `envconfig:"SERVER"`
	Database DatabaseConfig  `envconfig:"DATABASE"`
	Store    StoreConfig     `envconfig:"STORE"`
	Import   ImportConfig    `envconfig:"IMPORT"`
	Rate     RateLimitConfig `envconfig:"RATE_LIMIT"`
	Security SecurityConfig  `envconfig:"SECURITY"`
	Logging  LoggingConfig   `envconfig:"LOG"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for the postgres driver.
	URL string `envconfig:"URL"`

	MaxConns        int           `envconfig:"MAX_CONNS" default:"20"`
	MinConns        int           `envconfig:"MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"MAX_CONN_IDLE_TIME" default:"30m"`

	// EnsureSchema creates the tables on startup when they are missing.
	EnsureSchema bool `envconfig:"ENSURE_SCHEMA" default:"true"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is "postgres" or "memory" (default: postgres)
	Driver string `envconfig:"DRIVER" default:"postgres"`
}

// ImportConfig holds CSV import processing settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes (default: 10MB)
	MaxFileSize int64 `envconfig:"MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of imports running at once (default: 5)
	MaxConcurrent int `envconfig:"MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long an import waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `envconfig:"MAX_WAIT_TIME" default:"30s"`

	// CommitTimeout bounds the batch write of one import (default: 30s)
	CommitTimeout time.Duration `envconfig:"COMMIT_TIMEOUT" default:"30s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// RequestsPerSecond is the sustained rate per client IP (default: 5)
	RequestsPerSecond float64 `envconfig:"RPS" default:"5"`

	// Burst is the number of requests allowed above the sustained rate (default: 20)
	Burst int `envconfig:"BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// RequireAPIKey rejects API requests without a valid X-API-Key header.
	RequireAPIKey bool     `envconfig:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `envconfig:"API_KEYS"`

	// AllowedOrigins lists CORS origins; empty disables cross-origin access.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `envconfig:"ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
