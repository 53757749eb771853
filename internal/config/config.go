package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultConfigFile       = "dbmigrate.yml"
	DefaultMigrationsDir    = "./migrations"
	DefaultLockTimeout      = 5 * time.Second
	DefaultStatementTimeout = 0 // unbounded; long data migrations are legitimate
	DefaultLockWait         = 0 // fail fast when another apply holds the lock
	DefaultLogLevel         = "info"
	DefaultFormat           = "text"
)

// ErrMissingDatabaseURL is returned by Validate when no connection string was
// configured anywhere.
var ErrMissingDatabaseURL = errors.New("database URL is not set (use --db or DATABASE_URL)")

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL      string
	MigrationsDir    string
	LockTimeout      time.Duration
	StatementTimeout time.Duration
	LockWait         time.Duration
	LogLevel         string
	Format           string
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	DatabaseURL      string `yaml:"database_url"`
	MigrationsDir    string `yaml:"migrations_dir"`
	LockTimeout      string `yaml:"lock_timeout"`
	StatementTimeout string `yaml:"statement_timeout"`
	LockWait         string `yaml:"lock_wait"`
	LogLevel         string `yaml:"log_level"`
	Format           string `yaml:"format"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		MigrationsDir:    DefaultMigrationsDir,
		LockTimeout:      DefaultLockTimeout,
		StatementTimeout: DefaultStatementTimeout,
		LockWait:         DefaultLockWait,
		LogLevel:         DefaultLogLevel,
		Format:           DefaultFormat,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.DatabaseURL, raw.DatabaseURL)
	setString(&cfg.MigrationsDir, raw.MigrationsDir)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.Format, raw.Format)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"lock_timeout", raw.LockTimeout, &cfg.LockTimeout},
		{"statement_timeout", raw.StatementTimeout, &cfg.StatementTimeout},
		{"lock_wait", raw.LockWait, &cfg.LockWait},
	}

	for _, d := range durations {
		if d.raw == "" {
			continue
		}

		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s %q: %w", d.key, d.raw, err)
		}

		*d.dst = v
	}

	return cfg, nil
}

// MergeEnv overrides config fields from the environment. DATABASE_URL is
// honoured for compatibility; DBMIGRATE_DATABASE_URL takes precedence over it.
// Unparseable durations leave the field unchanged.
func MergeEnv(cfg *Config) {
	setString(&cfg.DatabaseURL, os.Getenv("DATABASE_URL"))
	setString(&cfg.DatabaseURL, os.Getenv("DBMIGRATE_DATABASE_URL"))
	setString(&cfg.MigrationsDir, os.Getenv("DBMIGRATE_MIGRATIONS_DIR"))
	setString(&cfg.LogLevel, os.Getenv("DBMIGRATE_LOG_LEVEL"))

	envDurations := map[string]*time.Duration{
		"DBMIGRATE_LOCK_TIMEOUT":      &cfg.LockTimeout,
		"DBMIGRATE_STATEMENT_TIMEOUT": &cfg.StatementTimeout,
		"DBMIGRATE_LOCK_WAIT":         &cfg.LockWait,
	}

	for name, dst := range envDurations {
		if v := os.Getenv(name); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
}

// Validate checks the settings every database command needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrMissingDatabaseURL
	}

	if c.LockTimeout < 0 || c.StatementTimeout < 0 || c.LockWait < 0 {
		return errors.New("timeouts must not be negative")
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
