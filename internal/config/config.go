// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Base URL for uploaded artifact links (e.g., https://api.roomify.vn)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Directory where meter images are persisted
	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads/meter-images"`

	// Capture token lifecycle. The token TTL bounds issuance-to-capture;
	// the upload delay bound independently caps capture-to-receipt latency.
	CaptureTokenTTL      time.Duration `env:"CAPTURE_TOKEN_TTL" envDefault:"60s"`
	CaptureUploadMaxAge  time.Duration `env:"CAPTURE_UPLOAD_MAX_AGE" envDefault:"90s"`
	CaptureSweepInterval time.Duration `env:"CAPTURE_SWEEP_INTERVAL" envDefault:"30s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting for the capture endpoints (per client IP)
	RateLimitCaptureEnabled bool `env:"RATE_LIMIT_CAPTURE_ENABLED" envDefault:"true"`
	RateLimitCaptureRPS     int  `env:"RATE_LIMIT_CAPTURE_RPS" envDefault:"5"`
	RateLimitCaptureBurst   int  `env:"RATE_LIMIT_CAPTURE_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://app.roomify.vn")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 8MB; uploads carry base64 images)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"8388608"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
