// Package config loads the server configuration from a YAML file. Command-line
// flags and environment variables are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen        = ":8099"
	defaultDataDir       = "./data"
	defaultStaticDir     = "./static"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultTokenTTL      = 24 * time.Hour
	defaultBcryptCost    = 10
	defaultReminderSpec  = "@every 1m"
	defaultReminderLead  = 15 * time.Minute
	defaultAuthRate      = 1.0
	defaultAuthBurst     = 5
	defaultShutdownGrace = 30 * time.Second

	// DatabaseFile is the SQLite file name inside the data directory.
	DatabaseFile = "roster-scheduler.db"

	minSecretLength = 32
)

// AuthConfig controls token issuance and password hashing.
type AuthConfig struct {
	// JWTSecret signs bearer tokens. At least 32 bytes.
	JWTSecret string `yaml:"jwt_secret"`
	// TokenTTL is the lifetime of issued tokens (e.g. "24h").
	TokenTTL time.Duration `yaml:"token_ttl"`
	// BcryptCost is the password hashing cost.
	BcryptCost int `yaml:"bcrypt_cost"`
	// RateLimit is the sustained number of login/register requests per
	// second allowed per client address.
	RateLimit float64 `yaml:"rate_limit"`
	// RateBurst is the burst size for RateLimit.
	RateBurst int `yaml:"rate_burst"`
}

// ReminderConfig controls upcoming-event notifications.
type ReminderConfig struct {
	Enabled bool `yaml:"enabled"`
	// Schedule is a robfig/cron spec (e.g. "@every 1m" or "*/5 * * * *").
	Schedule string `yaml:"schedule"`
	// LeadTime is how long before an event starts its reminder goes out.
	LeadTime time.Duration `yaml:"lead_time"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// DataDir holds the SQLite database.
	DataDir string `yaml:"data_dir"`
	// StaticDir is served at / when it exists.
	StaticDir string `yaml:"static_dir"`
	// ShutdownGrace bounds graceful shutdown.
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`

	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Reminder ReminderConfig `yaml:"reminder"`
}

// DefaultConfig returns an in-memory default configuration. The JWT secret
// is left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Listen:        defaultListen,
		DataDir:       defaultDataDir,
		StaticDir:     defaultStaticDir,
		ShutdownGrace: defaultShutdownGrace,
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Auth: AuthConfig{
			TokenTTL:   defaultTokenTTL,
			BcryptCost: defaultBcryptCost,
			RateLimit:  defaultAuthRate,
			RateBurst:  defaultAuthBurst,
		},
		Reminder: ReminderConfig{
			Enabled:  true,
			Schedule: defaultReminderSpec,
			LeadTime: defaultReminderLead,
		},
	}
}

// Normalize fills in missing or zero values with defaults so partially
// filled files behave like complete ones.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.StaticDir == "" {
		c.StaticDir = defaultStaticDir
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = defaultShutdownGrace
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		c.Log.Format = defaultLogFormat
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = defaultTokenTTL
	}
	if c.Auth.BcryptCost <= 0 {
		c.Auth.BcryptCost = defaultBcryptCost
	}
	if c.Auth.RateLimit <= 0 {
		c.Auth.RateLimit = defaultAuthRate
	}
	if c.Auth.RateBurst <= 0 {
		c.Auth.RateBurst = defaultAuthBurst
	}
	if c.Reminder.Schedule == "" {
		c.Reminder.Schedule = defaultReminderSpec
	}
	if c.Reminder.LeadTime <= 0 {
		c.Reminder.LeadTime = defaultReminderLead
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d bytes", minSecretLength))
	}
	if c.Reminder.Enabled {
		if _, err := cron.ParseStandard(c.Reminder.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("reminder.schedule %q: %w", c.Reminder.Schedule, err))
		}
	}
	return errors.Join(errs...)
}

// DatabasePath returns the SQLite file path inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, DatabaseFile)
}

// Load reads configuration from the YAML file at path. An empty path yields
// the defaults. The result is normalized but not validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}
