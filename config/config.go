// Package config provides configuration management: defaults, a YAML
// file, and STALL_-prefixed environment overrides, in that order.
package config

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// Config represents the application configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Logger    LoggerConfig    `yaml:"logger" env:"LOGGER"`
	Session   SessionConfig   `yaml:"session" env:"SESSION"`
	JWT       JWTConfig       `yaml:"jwt" env:"JWT"`
	Uploads   UploadsConfig   `yaml:"uploads" env:"UPLOADS"`
	Payment   PaymentConfig   `yaml:"payment" env:"PAYMENT"`
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `yaml:"address" env:"ADDRESS" default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT" default:"120s"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `yaml:"level" env:"LEVEL" default:"info"`
	Encoding string `yaml:"encoding" env:"ENCODING" default:"json"`
}

// SessionConfig holds visitor session configuration.
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name" env:"COOKIE_NAME" default:"stall_session"`
	TTL        time.Duration `yaml:"ttl" env:"TTL" default:"24h"`
	Secret     string        `yaml:"secret" env:"SECRET" default:"dev-session-secret"`
	Secure     bool          `yaml:"secure" env:"SECURE" default:"false"`
}

// JWTConfig holds API token configuration.
type JWTConfig struct {
	SecretKey      string        `yaml:"secret_key" env:"SECRET_KEY" default:"dev-jwt-secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" default:"1h"`
	Issuer         string        `yaml:"issuer" env:"ISSUER" default:"stall"`
}

// UploadsConfig holds file upload storage configuration.
type UploadsConfig struct {
	Dir     string `yaml:"dir" env:"DIR" default:"uploads"`
	TempDir string `yaml:"temp_dir" env:"TEMP_DIR" default:""`
}

// PaymentConfig selects the payment gateway strategy.
type PaymentConfig struct {
	Gateway string `yaml:"gateway" env:"GATEWAY" default:"mock"`
}

// RateLimitConfig holds the per-IP request rate limit.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED" default:"true"`
	Rate    int  `yaml:"rate" env:"RATE" default:"20"`
	Burst   int  `yaml:"burst" env:"BURST" default:"40"`
}

// DefaultConfig returns a configuration populated from the struct
// default tags.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(reflect.ValueOf(cfg).Elem())
	return cfg
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("config: server address is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("config: session secret is required")
	}
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("config: jwt secret key is required")
	}
	if c.RateLimit.Enabled && c.RateLimit.Rate <= 0 {
		return fmt.Errorf("config: rate limit rate must be positive")
	}
	switch c.Logger.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("config: logger encoding must be json or console, got %q", c.Logger.Encoding)
	}
	return nil
}

// BuildLogger constructs the zap logger the configuration describes.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("config: invalid log level %q: %w", c.Logger.Level, err)
	}

	var zcfg zap.Config
	if c.Logger.Level == "debug" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level
	zcfg.Encoding = c.Logger.Encoding
	return zcfg.Build()
}
