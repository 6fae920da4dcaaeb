// Package config loads the service configuration from a YAML file, applying
// defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Ingestion profile names. The two profiles correspond to the two CSV
// dialects in the field: WITS exports with a combined timestamp column, and
// surface-sensor exports with split date/time columns.
const (
	ProfileWitsAppend    = "wits-append"
	ProfileSurfaceReload = "surface-reload"
)

// Config is the root service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
	Ingest     IngestConfig     `yaml:"ingest"`
}

// Playback sort policies for the combined-schema endpoint.
const (
	PlaybackOldestFirst = "oldest-first"
	PlaybackNewestFirst = "newest-first"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// PlaybackOrder controls how the combined-schema endpoint orders the
	// most recent N samples it returns. Playback UIs want oldest-first.
	PlaybackOrder string `yaml:"playback_order"`
}

// PostgreSQLConfig contains database connection settings.
type PostgreSQLConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// IngestConfig selects the CSV ingestion profile and bounds uploads.
type IngestConfig struct {
	Profile     string        `yaml:"profile"`
	MaxFileSize int64         `yaml:"max_file_size"`
	MaxDuration time.Duration `yaml:"max_duration"`
}

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,

			PlaybackOrder: PlaybackOldestFirst,
		},
		PostgreSQL: PostgreSQLConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "drilling",
			User:         "postgres",
			Password:     "",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Ingest: IngestConfig{
			Profile:     ProfileSurfaceReload,
			MaxFileSize: 100 * 1024 * 1024,
			MaxDuration: 300 * time.Second,
		},
	}
}

// Load reads configuration from path. A missing path or file falls back to
// defaults; a present but invalid file is an error.
func Load(path string, log logrus.FieldLogger) (*Config, error) {
	log = log.WithField("component", "config")

	if path == "" {
		log.Info("No config path provided, using defaults")
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WithField("path", path).Info("Config file not found, using defaults")
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"addr":           cfg.Server.Addr,
		"pg_host":        cfg.PostgreSQL.Host,
		"pg_port":        cfg.PostgreSQL.Port,
		"pg_database":    cfg.PostgreSQL.Database,
		"ingest_profile": cfg.Ingest.Profile,
	}).Info("Loaded configuration")

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = def.Server.IdleTimeout
	}
	if cfg.Server.PlaybackOrder == "" {
		cfg.Server.PlaybackOrder = def.Server.PlaybackOrder
	}
	if cfg.PostgreSQL.Host == "" {
		cfg.PostgreSQL.Host = def.PostgreSQL.Host
	}
	if cfg.PostgreSQL.Port == 0 {
		cfg.PostgreSQL.Port = def.PostgreSQL.Port
	}
	if cfg.PostgreSQL.Database == "" {
		cfg.PostgreSQL.Database = def.PostgreSQL.Database
	}
	if cfg.PostgreSQL.User == "" {
		cfg.PostgreSQL.User = def.PostgreSQL.User
	}
	if cfg.PostgreSQL.SSLMode == "" {
		cfg.PostgreSQL.SSLMode = def.PostgreSQL.SSLMode
	}
	if cfg.PostgreSQL.MaxOpenConns == 0 {
		cfg.PostgreSQL.MaxOpenConns = def.PostgreSQL.MaxOpenConns
	}
	if cfg.PostgreSQL.MaxIdleConns == 0 {
		cfg.PostgreSQL.MaxIdleConns = def.PostgreSQL.MaxIdleConns
	}
	if cfg.Ingest.Profile == "" {
		cfg.Ingest.Profile = def.Ingest.Profile
	}
	if cfg.Ingest.MaxFileSize == 0 {
		cfg.Ingest.MaxFileSize = def.Ingest.MaxFileSize
	}
	if cfg.Ingest.MaxDuration == 0 {
		cfg.Ingest.MaxDuration = def.Ingest.MaxDuration
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if err := c.PostgreSQL.Validate(); err != nil {
		return fmt.Errorf("invalid postgresql configuration: %w", err)
	}
	if c.Ingest.Profile != ProfileWitsAppend && c.Ingest.Profile != ProfileSurfaceReload {
		return fmt.Errorf("unknown ingest profile: %q", c.Ingest.Profile)
	}
	if c.Ingest.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be greater than 0")
	}
	if c.Server.PlaybackOrder != PlaybackOldestFirst && c.Server.PlaybackOrder != PlaybackNewestFirst {
		return fmt.Errorf("unknown playback_order: %q", c.Server.PlaybackOrder)
	}
	return nil
}

// Validate checks the PostgreSQL configuration.
func (c *PostgreSQLConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max_open_conns must be greater than 0")
	}
	if c.MaxIdleConns <= 0 {
		return fmt.Errorf("max_idle_conns must be greater than 0")
	}
	return nil
}

// ConnectionString returns the lib/pq connection string. DATABASE_URL in the
// environment overrides the structured settings, matching deployments where
// the platform injects one URL.
func (c *PostgreSQLConfig) ConnectionString() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
