// Package config loads the outreach service configuration from a YAML file
// and lets environment variables override individual keys.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds every runtime setting of the outreach service.
type Config struct {
	GRPCPort int `yaml:"GRPC_PORT" env:"GRPC_PORT"`
	HTTPPort int `yaml:"HTTP_PORT" env:"HTTP_PORT"`

	Store      string `yaml:"STORE" env:"STORE"`
	DBHost     string `yaml:"DB_HOST" env:"DB_HOST"`
	DBPort     int    `yaml:"DB_PORT" env:"DB_PORT"`
	DBUser     string `yaml:"DB_USER" env:"DB_USER"`
	DBPassword string `yaml:"DB_PASSWORD" env:"DB_PASSWORD"`
	DBName     string `yaml:"DB_NAME" env:"DB_NAME"`
	DBSSLMode  string `yaml:"DB_SSLMODE" env:"DB_SSLMODE"`
	DBPath     string `yaml:"DB_PATH" env:"DB_PATH"`

	KafkaBrokers []string `yaml:"KAFKA_BROKERS" env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string   `yaml:"TOPIC" env:"TOPIC"`

	JWTSecret string `yaml:"JWT_SECRET" env:"JWT_SECRET"`

	QuickThresholdDays int    `yaml:"QUICK_THRESHOLD_DAYS" env:"QUICK_THRESHOLD_DAYS"`
	DefaultWindowDays  int    `yaml:"DEFAULT_WINDOW_DAYS" env:"DEFAULT_WINDOW_DAYS"`
	RecentLimit        int    `yaml:"RECENT_LIMIT" env:"RECENT_LIMIT"`
	HistoryLimit       int    `yaml:"HISTORY_LIMIT" env:"HISTORY_LIMIT"`
	PhoneRegion        string `yaml:"PHONE_REGION" env:"PHONE_REGION"`
	SeedMethods        bool   `yaml:"SEED_METHODS" env:"SEED_METHODS"`
}

// Default returns the configuration used when a key is set nowhere.
func Default() Config {
	return Config{
		GRPCPort:           9090,
		HTTPPort:           8080,
		Store:              StoreMemory,
		DBSSLMode:          "disable",
		DBPath:             "outreach.db",
		Topic:              "outreach.events",
		QuickThresholdDays: 14,
		DefaultWindowDays:  30,
		RecentLimit:        5,
		HistoryLimit:       5,
		PhoneRegion:        "US",
		SeedMethods:        true,
	}
}

// Load reads path on top of the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.GRPCPort <= 0 || c.HTTPPort <= 0 {
		return fmt.Errorf("ports must be positive")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.QuickThresholdDays <= 0 || c.DefaultWindowDays <= 0 {
		return fmt.Errorf("day thresholds must be positive")
	}
	return nil
}
