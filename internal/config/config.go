// Package config handles loading and parsing application configuration.
// The file path comes from (in priority order):
//  1. The --config flag of the studentdb command
//  2. The CONFIG_PATH environment variable
//
// Every value read from YAML can be overridden by its env:"..." variable.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers for the student table.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Account document backends.
const (
	AccountsFile  = "file"
	AccountsRedis = "redis"
)

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// StorageDriver selects the student table backend. "memory" keeps
	// nothing across restarts and is meant for tests and demos.
	StorageDriver string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"sqlite"`

	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"storage/students.db"`

	// PostgresURL is used when StorageDriver is "postgres".
	PostgresURL string `yaml:"postgres_url" env:"POSTGRES_URL"`

	// StableIDs makes updates keep the record id instead of reinserting
	// the row under a new one.
	StableIDs bool `yaml:"stable_ids" env:"STABLE_IDS" env-default:"false"`

	Accounts   Accounts `yaml:"accounts"`
	HTTPServer `yaml:"http_server"`
}

// Accounts configures where the admin and user namespaces are persisted.
type Accounts struct {
	Backend string `yaml:"backend" env:"ACCOUNTS_BACKEND" env-default:"file"`

	// Dir holds credentials.json (admin) and users.json (user).
	Dir string `yaml:"dir" env:"ACCOUNTS_DIR" env-default:"storage"`

	Redis Redis `yaml:"redis"`
}

// Redis holds connection settings for the redis account backend.
type Redis struct {
	Addr     string `yaml:"address"  env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB" env-default:"0"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`
}

// Load reads the config file at path (or $CONFIG_PATH when path is empty)
// and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return nil, errors.New("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
		if c.StoragePath == "" {
			return errors.New("config: storage_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.PostgresURL == "" {
			return errors.New("config: postgres_url is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown storage_driver %q", c.StorageDriver)
	}

	switch c.Accounts.Backend {
	case AccountsFile, AccountsRedis:
	default:
		return fmt.Errorf("config: unknown accounts.backend %q", c.Accounts.Backend)
	}

	return nil
}
