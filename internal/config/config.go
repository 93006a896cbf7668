// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for deal-calculator.
type Configuration struct {
	Deals   []Deal        `yaml:"deals"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Cache   CacheConfig   `yaml:"cache,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json, yaml
}

// StorageConfig selects where deals are persisted.
type StorageConfig struct {
	Driver string `yaml:"driver,omitempty"` // memory, sqlite, postgres
	DSN    string `yaml:"dsn,omitempty"`
}

// CacheConfig selects where computed results are cached.
type CacheConfig struct {
	Backend         string        `yaml:"backend,omitempty"` // none, memory, redis
	TTL             time.Duration `yaml:"ttl,omitempty"`
	CleanupInterval time.Duration `yaml:"cleanupInterval,omitempty"`
	RedisAddress    string        `yaml:"redisAddress,omitempty"`
	RedisPassword   string        `yaml:"redisPassword,omitempty"`
	RedisDB         int           `yaml:"redisDb,omitempty"`
}

// Deal is one deal to compute, as written in the config file.
type Deal struct {
	Name    string     `yaml:"name"`
	Variant string     `yaml:"variant"` // domestic, international or both when empty
	Input   deal.Input `yaml:"input"`
}

// Variants resolves the variants a deal is computed under. An empty variant
// selects both.
func (d Deal) Variants() ([]deal.Variant, error) {
	if strings.TrimSpace(d.Variant) == "" {
		return deal.Variants(), nil
	}
	variant, err := deal.ParseVariant(d.Variant)
	if err != nil {
		return nil, fmt.Errorf("deal %q: %w", d.Name, err)
	}
	return []deal.Variant{variant}, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A .env file next to the config file is loaded into
// the environment first, and any key can be overridden by a DEAL_ prefixed
// environment variable (for example DEAL_STORAGE_DSN).
func LoadConfiguration(configPath string) (*Configuration, error) {
	if err := LoadDotEnv(filepath.Join(filepath.Dir(configPath), ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// LoadDotEnv loads environment variables from path without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("storage.driver", constants.StorageDriverMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("cache.backend", constants.CacheBackendMemory)
	v.SetDefault("cache.ttl", time.Duration(constants.DefaultCacheTTLSeconds)*time.Second)
	v.SetDefault("cache.cleanupInterval", time.Duration(constants.DefaultCacheCleanupSeconds)*time.Second)
	v.SetDefault("cache.redisAddress", "localhost:6379")
	v.SetDefault("cache.redisPassword", "")
	v.SetDefault("cache.redisDb", 0)
}
