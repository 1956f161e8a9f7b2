// Package config provides functionality for managing configuration options
// for the launcher using a YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the launcher reads.
const EnvPrefix = "LAUNCHER_"

// File names inside the data directory.
const (
	DatabaseFile = "games.db"
	ConfigFile   = "config.yaml"
)

// Options holds the configuration values for the application.
type Options struct {
	// DataDir is the per-application directory holding the database and documents.
	DataDir string `yaml:"data_dir" env:"DATA_DIR"`

	// Driver selects the relational backend: "sqlite" or "postgres".
	Driver string `yaml:"driver" env:"DRIVER"`

	// DatabaseDSN overrides the connection string. Empty means <DataDir>/games.db.
	DatabaseDSN string `yaml:"database_dsn" env:"DATABASE_DSN"`

	// Addr is the loopback address the local API listens on.
	Addr string `yaml:"addr" env:"ADDR"`

	// LogLevel is a zap level name.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// HistoryScope is "user" (user_<id>/last_games.txt) or "global" (last_games.txt).
	HistoryScope string `yaml:"history_scope" env:"HISTORY_SCOPE"`

	// SettingsScope is "global" (settings.json) or "user" (user_<id>/settings.json).
	SettingsScope string `yaml:"settings_scope" env:"SETTINGS_SCOPE"`

	// BcryptCost is the work factor for new password hashes.
	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST"`

	// RepairInterval is how often the daemon runs the orphan repair pass. Zero disables it.
	RepairInterval time.Duration `yaml:"repair_interval" env:"REPAIR_INTERVAL"`

	// LoginRate and LoginBurst limit login attempts on the local API.
	LoginRate  float64 `yaml:"login_rate" env:"LOGIN_RATE"`
	LoginBurst int     `yaml:"login_burst" env:"LOGIN_BURST"`
}

// Default returns the options used when neither a file nor the environment set a value.
func Default() *Options {
	return &Options{
		DataDir:        DefaultDataDir(),
		Driver:         "sqlite",
		Addr:           "127.0.0.1:8765",
		LogLevel:       "info",
		HistoryScope:   "user",
		SettingsScope:  "global",
		BcryptCost:     10,
		RepairInterval: 10 * time.Minute,
		LoginRate:      1,
		LoginBurst:     5,
	}
}

// DefaultDataDir resolves the data directory under the user's documents folder.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".game-launcher"
	}
	return filepath.Join(home, "Documents", "GameLauncher")
}

// Load builds Options from defaults, then the YAML file at path, then the environment.
// An empty path falls back to $LAUNCHER_CONFIG and then <data dir>/config.yaml.
// A missing file is not an error.
func Load(path string) (*Options, error) {
	opts := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path == "" {
		dir := opts.DataDir
		if fromEnv := os.Getenv(EnvPrefix + "DATA_DIR"); fromEnv != "" {
			dir = fromEnv
		}
		path = filepath.Join(dir, ConfigFile)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := env.ParseWithOptions(opts, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate rejects unknown enum values, negative intervals and non-positive limits.
func (o *Options) Validate() error {
	switch o.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown driver %q", o.Driver)
	}
	if o.Driver == "postgres" && o.DatabaseDSN == "" {
		return errors.New("postgres driver requires database_dsn")
	}
	if o.HistoryScope != "user" && o.HistoryScope != "global" {
		return fmt.Errorf("unknown history_scope %q", o.HistoryScope)
	}
	if o.SettingsScope != "user" && o.SettingsScope != "global" {
		return fmt.Errorf("unknown settings_scope %q", o.SettingsScope)
	}
	if o.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if o.RepairInterval < 0 {
		return fmt.Errorf("repair_interval must not be negative, got %s", o.RepairInterval)
	}
	if o.LoginBurst < 1 {
		return fmt.Errorf("login_burst must be positive, got %d", o.LoginBurst)
	}
	return nil
}

// DSN returns the configured connection string, defaulting to the SQLite file in DataDir.
func (o *Options) DSN() string {
	if o.DatabaseDSN != "" {
		return o.DatabaseDSN
	}
	return filepath.Join(o.DataDir, DatabaseFile)
}

// EnsureDataDir creates the data directory if needed.
func (o *Options) EnsureDataDir() error {
	if err := os.MkdirAll(o.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
