// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env                string        `mapstructure:"APP_ENV"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	JWTSecret          string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpHours        int64         `mapstructure:"JWT_EXPIRATION_HOURS"`
	DBHost             string        `mapstructure:"DB_HOST"`
	DBPort             string        `mapstructure:"DB_PORT"`
	DBUser             string        `mapstructure:"DB_USER"`
	DBPassword         string        `mapstructure:"DB_PASSWORD"`
	DBName             string        `mapstructure:"DB_NAME"`
	DBSSLMode          string        `mapstructure:"DB_SSLMODE"`
	StorageBackend     string        `mapstructure:"STORAGE_BACKEND"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	UserCacheTTL       time.Duration `mapstructure:"USER_CACHE_TTL"`
	AllowedOrigins     string        `mapstructure:"ALLOWED_ORIGINS"`
	MaxBodyBytes       int64         `mapstructure:"MAX_BODY_BYTES"`
	InitialAdminEmail  string        `mapstructure:"INITIAL_ADMIN_EMAIL"`
	AuthRateLimit      int           `mapstructure:"AUTH_RATE_LIMIT"`
	AuthRateWindow     time.Duration `mapstructure:"AUTH_RATE_WINDOW"`
	AuthRateFailClosed bool          `mapstructure:"AUTH_RATE_FAIL_CLOSED"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
}

var keys = []string{
	"APP_ENV", "SERVER_PORT", "JWT_SECRET_KEY", "JWT_EXPIRATION_HOURS",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"STORAGE_BACKEND", "REDIS_URL", "USER_CACHE_TTL", "ALLOWED_ORIGINS",
	"MAX_BODY_BYTES", "INITIAL_ADMIN_EMAIL", "AUTH_RATE_LIMIT",
	"AUTH_RATE_WINDOW", "AUTH_RATE_FAIL_CLOSED", "LOG_LEVEL",
}

// Load reads .env (if present), an optional config.yml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return loadFrom(v)
}

func loadFrom(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, so bind every key to its env var.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("JWT_SECRET_KEY", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dashboard")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("STORAGE_BACKEND", StoragePostgres)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("USER_CACHE_TTL", "5m")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_BODY_BYTES", 1<<20) // 1MB, same cap the web client expects for images
	v.SetDefault("INITIAL_ADMIN_EMAIL", "")
	v.SetDefault("AUTH_RATE_LIMIT", 10)
	v.SetDefault("AUTH_RATE_WINDOW", "1m")
	v.SetDefault("AUTH_RATE_FAIL_CLOSED", false)
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("SERVER_PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	if c.JWTExpHours <= 0 {
		return errors.New("JWT_EXPIRATION_HOURS must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	switch c.StorageBackend {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", StoragePostgres, StorageMemory)
	}
	if c.AuthRateFailClosed && c.AuthRateLimit > 0 && c.RedisURL == "" {
		return errors.New("AUTH_RATE_FAIL_CLOSED requires REDIS_URL")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET_KEY must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET_KEY must be at least 32 characters in production")
		}
		if c.StorageBackend == StorageMemory {
			return errors.New("STORAGE_BACKEND=memory is not allowed in production")
		}
		if c.AllowedOrigins == "*" {
			slog.Warn("ALLOWED_ORIGINS is set to '*' in production")
		}
	} else if len(c.JWTSecret) < 32 {
		slog.Warn("JWT_SECRET_KEY is shorter than 32 characters; use a stronger secret for production")
	}
	return nil
}
