package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"mc21-server/internal/util"
)

// Config provides configuration for the M.C. 21 card room
type Config struct {
	loaded bool

	// Store selects the document store backend: "postgres" or "memory"
	Store string `yaml:"store" envconfig:"store"`

	PGDSN          string `yaml:"pgDsn" envconfig:"pg_dsn"`
	MigrationsPath string `yaml:"migrationsPath" envconfig:"migrations_path"`

	JWT struct {
		PublicKey  string `yaml:"publicKey" envconfig:"public_key"`
		PrivateKey string `yaml:"privateKey" envconfig:"private_key"`
	} `yaml:"jwt"`

	Log struct {
		Level             string `yaml:"level" envconfig:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	} `yaml:"log"`

	Table struct {
		Decks    int `yaml:"decks" envconfig:"decks"`
		MaxSeats int `yaml:"maxSeats" envconfig:"max_seats"`
	} `yaml:"table"`
}

var config Config

// DefaultConfig returns the configuration defaults
func DefaultConfig() Config {
	cfg := Config{}
	cfg.Store = "postgres"
	cfg.PGDSN = "postgres://postgres@localhost:5432/postgres?sslmode=disable"
	cfg.MigrationsPath = "./sql"
	cfg.JWT.PublicKey = "public.pem"
	cfg.JWT.PrivateKey = "private.key"
	cfg.Log.Level = "info"
	cfg.Table.Decks = 6
	cfg.Table.MaxSeats = 4

	return cfg
}

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration. A missing config file is not an error;
// defaults and environment variables still apply.
func Load() error {
	config = DefaultConfig()

	configFile := util.Getenv("MC21_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	} else {
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return err
		}
	}

	if err := envconfig.Process("mc21", &config); err != nil {
		return err
	}

	config.loaded = true
	return nil
}
