package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if a value cannot be parsed or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Usage prints every recognised variable with its type and default.
func Usage() error {
	return envconfig.Usage("", &Config{})
}

func (c *Config) normalize() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DB_URL")
	}

	proxies := make([]string, 0, len(c.Security.TrustedProxies))
	for _, p := range c.Security.TrustedProxies {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	c.Security.TrustedProxies = proxies

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Upload validation
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxFiles <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILES must be positive")
	}

	// Conversion validation
	if c.Convert.MaxConcurrent <= 0 {
		errs = append(errs, "CONVERT_MAX_CONCURRENT must be positive")
	}
	if c.Convert.MaxWait <= 0 {
		errs = append(errs, "CONVERT_MAX_WAIT must be positive")
	}
	if c.Convert.PreviewRows <= 0 {
		errs = append(errs, "CONVERT_PREVIEW_ROWS must be positive")
	}
	if c.ChartMaxRows <= 0 {
		errs = append(errs, "CHART_MAX_ROWS must be positive")
	}

	// Session validation
	if c.Session.FileTTL <= 0 {
		errs = append(errs, "SESSION_FILE_TTL must be positive")
	}
	if c.Session.MaxFiles <= 0 {
		errs = append(errs, "SESSION_MAX_FILES must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, "SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.Session.CookieName == "" {
		errs = append(errs, "SESSION_COOKIE_NAME must not be empty")
	}

	// Rate limit validation
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.RateLimit.Enabled && c.RateLimit.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD_LIMIT must be positive when rate limiting is enabled")
	}

	// Security validation
	for _, p := range c.Security.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err != nil {
			errs = append(errs, fmt.Sprintf("SECURITY_TRUSTED_PROXIES entry %q is not a CIDR", p))
		}
	}

	// Database validation
	if c.DatabaseURL != "" {
		if c.DB.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.DB.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.DB.MaxConns < c.DB.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.DB.MaxConns, c.DB.MinConns))
		}
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Log.Format))
	}

	if c.Log.SeqURL != "" {
		if u, err := url.Parse(c.Log.SeqURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("LOG_SEQ_URL (%q) must be an absolute URL", c.Log.SeqURL))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	db := "[NONE]"
	if c.DatabaseURL != "" {
		db = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: %s, MaxConns: %d}, ", db, c.DB.MaxConns))
	b.WriteString(fmt.Sprintf("Upload: {MaxFileSize: %d, MaxFiles: %d}, ",
		c.Upload.MaxFileSize, c.Upload.MaxFiles))
	b.WriteString(fmt.Sprintf("Convert: {MaxConcurrent: %d, MaxWait: %s}, ",
		c.Convert.MaxConcurrent, c.Convert.MaxWait))
	b.WriteString(fmt.Sprintf("Session: {FileTTL: %s, MaxFiles: %d}, ",
		c.Session.FileTTL, c.Session.MaxFiles))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.RateLimit.Enabled, c.RateLimit.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q, Seq: %v}",
		c.Log.Level, c.Log.Format, c.Log.SeqURL != ""))
	b.WriteString("}")
	return b.String()
}
