// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// Variable names are derived from the struct layout: the group field name
// followed by the setting name, split on word boundaries. For example
// Server.ReadTimeout is SERVER_READ_TIMEOUT and RateLimit.UploadLimit is
// RATE_LIMIT_UPLOAD_LIMIT.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Convert   ConvertConfig
	Session   SessionConfig
	RateLimit RateLimitConfig `split_words:"true"`
	Security  SecurityConfig
	Log       LogConfig
	DB        DatabaseConfig

	// DatabaseURL enables the Postgres conversion history when set.
	// DB_URL is accepted as a fallback.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// MetricsEnabled exposes /metrics (default: true)
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	// ChartMaxRows caps the rows plotted in the chart (default: 500)
	ChartMaxRows int `envconfig:"CHART_MAX_ROWS" default:"500"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 60s)
	ReadTimeout time.Duration `split_words:"true" default:"60s"`

	// WriteTimeout is the maximum duration for writing the response (default: 120s)
	WriteTimeout time.Duration `split_words:"true" default:"120s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `split_words:"true" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `split_words:"true" default:"90s"`
}

// UploadConfig holds upload limits.
type UploadConfig struct {
	// MaxFileSize is the maximum size of one file in bytes (default: 50MB)
	MaxFileSize int64 `split_words:"true" default:"52428800"`

	// MaxFiles is the maximum number of files in one upload request (default: 10)
	MaxFiles int `split_words:"true" default:"10"`
}

// ConvertConfig holds pipeline concurrency settings.
type ConvertConfig struct {
	// MaxConcurrent is the maximum number of parallel pipeline runs (default: 4)
	MaxConcurrent int `split_words:"true" default:"4"`

	// MaxWait is how long a run waits for a slot (default: 30s)
	MaxWait time.Duration `split_words:"true" default:"30s"`

	// PreviewRows is the number of rows shown per stage preview (default: 5)
	PreviewRows int `split_words:"true" default:"5"`
}

// SessionConfig holds settings for files kept between requests.
type SessionConfig struct {
	// FileTTL is how long an untouched upload is kept (default: 30m)
	FileTTL time.Duration `split_words:"true" default:"30m"`

	// MaxFiles is the maximum number of files held per session (default: 20)
	MaxFiles int `split_words:"true" default:"20"`

	// SweepInterval is how often expired files are released (default: 1m)
	SweepInterval time.Duration `split_words:"true" default:"1m"`

	// CookieName names the session cookie (default: fc_session)
	CookieName string `split_words:"true" default:"fc_session"`

	// CookieSecure marks the session cookie Secure (default: false)
	CookieSecure bool `split_words:"true" default:"false"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `split_words:"true" default:"120"`

	// UploadLimit is requests per minute for upload endpoints (default: 20)
	UploadLimit int `split_words:"true" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `split_words:"true"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `split_words:"true" default:"true"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `default:"text"`

	// SeqURL sends logs to a Seq server as well when set
	SeqURL string `split_words:"true"`
}

// DatabaseConfig holds connection pool settings, used only when
// DatabaseURL is set.
type DatabaseConfig struct {
	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `split_words:"true" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `split_words:"true" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `split_words:"true" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `split_words:"true" default:"30m"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HistoryEnabled reports whether conversion history goes to Postgres.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}
