package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Jobs      JobsConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `env:"SERVER_PORT" envDefault:"8080"`
	Env            string        `env:"SERVER_ENV" envDefault:"development"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `env:"DB_HOST" envDefault:"localhost"`
	Port      string `env:"DB_PORT" envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"worship"`
	Database  string `env:"DB_DATABASE" envDefault:"main"`
	User      string `env:"DB_USER" envDefault:"root"`
	Password  string `env:"DB_PASSWORD" envDefault:"root"`
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./keys/private.pem"`
	PublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./keys/public.pem"`
	ExpirationMins int           `env:"JWT_EXPIRATION_MINS" envDefault:"15"`
	RefreshTTL     time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`
	Issuer         string        `env:"JWT_ISSUER" envDefault:"worship.forgo.software"`
}

// AuthConfig controls account creation.
type AuthConfig struct {
	AllowRegistration bool `env:"AUTH_ALLOW_REGISTRATION" envDefault:"false"`
}

// RateLimitConfig holds request limiting settings. Limits are per minute.
type RateLimitConfig struct {
	Enabled      bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalPerMin int64  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"300"`
	AuthPerMin   int64  `env:"RATE_LIMIT_AUTH_PER_MINUTE" envDefault:"10"`
	Store        string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	RedisURL     string `env:"REDIS_URL"`
}

// StorageConfig selects where chord sheet files live.
type StorageConfig struct {
	Driver          string        `env:"STORAGE_DRIVER" envDefault:"memory"`
	Bucket          string        `env:"STORAGE_BUCKET"`
	Region          string        `env:"STORAGE_REGION" envDefault:"us-east-1"`
	Endpoint        string        `env:"STORAGE_ENDPOINT"`
	PathStyle       bool          `env:"STORAGE_PATH_STYLE" envDefault:"false"`
	AccessKeyID     string        `env:"STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"STORAGE_SECRET_ACCESS_KEY"`
	MaxUploadBytes  int64         `env:"STORAGE_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	PresignTTL      time.Duration `env:"STORAGE_PRESIGN_TTL" envDefault:"15m"`
}

// JobsConfig holds background job settings
type JobsConfig struct {
	Enabled              bool          `env:"JOBS_ENABLED" envDefault:"true"`
	ReminderInterval     time.Duration `env:"JOBS_REMINDER_INTERVAL" envDefault:"15m"`
	ReminderLead         time.Duration `env:"JOBS_REMINDER_LEAD" envDefault:"72h"`
	SlotExpiryInterval   time.Duration `env:"JOBS_SLOT_EXPIRY_INTERVAL" envDefault:"1m"`
	TokenCleanupInterval time.Duration `env:"JOBS_TOKEN_CLEANUP_INTERVAL" envDefault:"1h"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Load reads .env files when present, then the environment. Variables already
// set in the environment win over the files.
func Load() (*Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		// Missing files are fine; only the environment is required.
		_ = godotenv.Load(f)
	}
	return Parse()
}

// Parse reads configuration from environment variables only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// AccessTTL is the access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.ExpirationMins) * time.Minute
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got '%s'", c.Server.LogLevel))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// JWT validation - critical for production
	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}
	if c.JWT.RefreshTTL < c.AccessTTL() {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must not be shorter than the access token lifetime"))
	}

	// Rate limiting
	if c.RateLimit.Enabled {
		if c.RateLimit.GlobalPerMin <= 0 || c.RateLimit.AuthPerMin <= 0 {
			errs = append(errs, errors.New("rate limits must be positive when RATE_LIMIT_ENABLED is true"))
		}
		switch c.RateLimit.Store {
		case "memory":
		case "redis":
			if _, err := url.Parse(c.RateLimit.RedisURL); err != nil || c.RateLimit.RedisURL == "" {
				errs = append(errs, errors.New("REDIS_URL must be a valid URL when RATE_LIMIT_STORE is redis"))
			}
		default:
			errs = append(errs, fmt.Errorf("RATE_LIMIT_STORE must be 'memory' or 'redis', got '%s'", c.RateLimit.Store))
		}
	}

	// Storage
	switch c.Storage.Driver {
	case "memory":
		if c.IsProduction() {
			errs = append(errs, errors.New("STORAGE_DRIVER memory loses uploads on restart and is not allowed in production"))
		}
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("STORAGE_BUCKET is required when STORAGE_DRIVER is s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be 'memory' or 's3', got '%s'", c.Storage.Driver))
	}
	if c.Storage.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("STORAGE_MAX_UPLOAD_BYTES must be positive"))
	}

	// Jobs
	if c.Jobs.Enabled {
		if c.Jobs.ReminderInterval <= 0 || c.Jobs.SlotExpiryInterval <= 0 || c.Jobs.TokenCleanupInterval <= 0 {
			errs = append(errs, errors.New("job intervals must be positive when JOBS_ENABLED is true"))
		}
		if c.Jobs.ReminderLead <= 0 {
			errs = append(errs, errors.New("JOBS_REMINDER_LEAD must be positive"))
		}
	}

	// Metrics
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("METRICS_PATH must start with '/'"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
