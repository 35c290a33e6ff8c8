package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Estate   EstateConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// DatabaseConfig holds record store configuration.
type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins over the
// individual DB_* settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
	)
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
	Methods []string
	Headers []string
	MaxAge  time.Duration
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	JWTSecret string
	Required  bool
	TokenTTL  time.Duration
}

// CacheConfig holds redis configuration. An empty Addr disables caching.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether a redis cache is configured.
func (c CacheConfig) Enabled() bool {
	return c.Addr != ""
}

// EstateConfig holds the domain defaults.
type EstateConfig struct {
	AvailabilityDays  int
	OfferValidityDays int
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "estate")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("CORS_METHODS", "GET,POST,PATCH,DELETE,OPTIONS")
	v.SetDefault("CORS_HEADERS", "Origin,Content-Type,Accept,Authorization,X-Request-ID")
	v.SetDefault("CORS_MAX_AGE", "12h")
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("AUTH_TOKEN_TTL", "24h")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("AVAILABILITY_DAYS", 90)
	v.SetDefault("OFFER_VALIDITY_DAYS", 7)

	// Bind environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("STORE_DRIVER")),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseList(v.GetString("CORS_ORIGINS")),
			Methods: parseList(strings.ToUpper(v.GetString("CORS_METHODS"))),
			Headers: parseList(v.GetString("CORS_HEADERS")),
			MaxAge:  v.GetDuration("CORS_MAX_AGE"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			Required:  v.GetBool("AUTH_REQUIRED"),
			TokenTTL:  v.GetDuration("AUTH_TOKEN_TTL"),
		},
		Cache: CacheConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("CACHE_TTL"),
		},
		Estate: EstateConfig{
			AvailabilityDays:  v.GetInt("AVAILABILITY_DAYS"),
			OfferValidityDays: v.GetInt("OFFER_VALIDITY_DAYS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Database.Driver {
	case StoreMemory:
	case StorePostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StorePostgres, StoreMemory)
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}
	if len(c.CORS.Methods) == 0 {
		return fmt.Errorf("CORS_METHODS is required")
	}
	if c.CORS.MaxAge < 0 {
		return fmt.Errorf("CORS_MAX_AGE must be non-negative")
	}

	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_REQUIRED is set")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive")
	}

	if c.Cache.DB < 0 {
		return fmt.Errorf("REDIS_DB must be non-negative")
	}
	if c.Cache.Enabled() && c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.Estate.AvailabilityDays < 0 {
		return fmt.Errorf("AVAILABILITY_DAYS must be non-negative")
	}
	if c.Estate.OfferValidityDays < 0 {
		return fmt.Errorf("OFFER_VALIDITY_DAYS must be non-negative")
	}

	return nil
}

func (d DatabaseConfig) validate() error {
	if d.URL == "" {
		if d.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if d.Port == "" {
			return fmt.Errorf("DB_PORT is required")
		}
		if d.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
		if d.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if d.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// parseList splits a comma-separated string into its trimmed, non-empty parts.
func parseList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
