// Package config loads runtime configuration from ZALOGA_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
)

// Prefix is prepended to every environment variable name.
const Prefix = "ZALOGA"

// Config holds runtime configuration for the server.
type Config struct {
	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN    string `envconfig:"DB_DSN" default:"zaloga.sqlite3"`
	Addr     string `envconfig:"ADDR" default:":8080"`

	LogPath   string `envconfig:"LOG_PATH"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// JWTSecret signs session tokens. When empty a secret is generated and
	// kept in the database.
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	LoginRateLimit int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`

	AdminLogin        string `envconfig:"ADMIN_LOGIN" default:"admin"`
	SystemAccountID   int64  `envconfig:"SYSTEM_ACCOUNT_ID" default:"0"`
	ExpiryWarningDays int    `envconfig:"EXPIRY_WARNING_DAYS" default:"14"`
	TxRetries         int    `envconfig:"TX_RETRIES" default:"3"`
	Collation         string `envconfig:"COLLATION" default:"sk"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that envconfig cannot.
func (c *Config) Validate() error {
	if _, err := db.ParseDialect(c.DBDriver); err != nil {
		return err
	}
	if c.DBDSN == "" {
		return fmt.Errorf("%s_DB_DSN must not be empty", Prefix)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%s_LOG_FORMAT must be text or json, got %q", Prefix, c.LogFormat)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%s_TOKEN_TTL must be positive", Prefix)
	}
	if c.TxRetries < 1 {
		return fmt.Errorf("%s_TX_RETRIES must be at least 1", Prefix)
	}
	if c.ExpiryWarningDays < 0 {
		return fmt.Errorf("%s_EXPIRY_WARNING_DAYS must not be negative", Prefix)
	}
	if c.LoginRateLimit < 1 {
		return fmt.Errorf("%s_LOGIN_RATE_LIMIT must be at least 1", Prefix)
	}
	if c.AdminLogin == "" {
		return fmt.Errorf("%s_ADMIN_LOGIN must not be empty", Prefix)
	}
	if strings.EqualFold(c.AdminLogin, inventory.SystemLogin) {
		return fmt.Errorf("%s_ADMIN_LOGIN must not be %q, it is reserved for the system account", Prefix, inventory.SystemLogin)
	}
	if _, err := language.Parse(c.Collation); err != nil {
		return fmt.Errorf("%s_COLLATION: %w", Prefix, err)
	}
	return nil
}

// Language returns the collation language for report ordering.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Collation)
	if err != nil {
		return language.Slovak
	}
	return tag
}
