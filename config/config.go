package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	// HTTP listener
	Port          string `yaml:"port"`
	PublicBaseURL string `yaml:"public_base_url"`

	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Upload   UploadConfig   `yaml:"upload"`
}

// PostgresConfig configures the relational store.
type PostgresConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// RedisConfig configures pub/sub, carts and token revocation.
type RedisConfig struct {
	URL     string `yaml:"url"`
	CartTTL string `yaml:"cart_ttl"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	SessionTTL string `yaml:"session_ttl"`
}

// UploadConfig configures the local file store for images.
type UploadConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port: "8080",
		Postgres: PostgresConfig{
			MaxOpenConns: 10,
		},
		Redis: RedisConfig{
			URL:     "redis://localhost:6379/0",
			CartTTL: "720h",
		},
		Auth: AuthConfig{
			SessionTTL: "720h",
		},
		Upload: UploadConfig{
			Dir:      "public/uploads",
			MaxBytes: 5 << 20,
		},
	}
}

// Load reads the YAML file at path (if any) on top of the defaults and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		c.PublicBaseURL = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Postgres.AutoMigrate = b
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.Upload.Dir = v
	}
}

// Validate reports the first missing or malformed setting.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port not set")
	}
	if c.Postgres.URL == "" {
		return errors.New("$POSTGRES_URL not set")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("$JWT_SECRET not set")
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if _, err := c.CartTTL(); err != nil {
		return err
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	return nil
}

// SessionTTL is the lifetime of issued tokens.
func (c *Config) SessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Auth.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("auth.session_ttl: %w", err)
	}
	return d, nil
}

// CartTTL is how long an untouched cart survives in Redis.
func (c *Config) CartTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Redis.CartTTL)
	if err != nil {
		return 0, fmt.Errorf("redis.cart_ttl: %w", err)
	}
	return d, nil
}
