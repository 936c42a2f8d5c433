// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Config is everything the matchmakr process reads from its environment.
type Config struct {
	Port                   string        `env:"PORT"                                envDefault:"8080"`
	Store                  string        `env:"MATCHMAKR_STORE"                     envDefault:"sqlite"`
	SQLitePath             string        `env:"MATCHMAKR_SQLITE_PATH"               envDefault:"data/matchmakr.db"`
	AWSRegion              string        `env:"AWS_REGION"                          envDefault:"us-east-1"`
	DynamoDBEndpoint       string        `env:"MATCHMAKR_DYNAMODB_ENDPOINT"`
	S3BucketName           string        `env:"S3_BUCKET_NAME"`
	AllowedOrigins         []string      `env:"MATCHMAKR_ALLOWED_ORIGINS"           envDefault:"*" envSeparator:","`
	SweepInterval          time.Duration `env:"MATCHMAKR_SWEEP_INTERVAL"            envDefault:"5m"`
	SneakPeekTTL           time.Duration `env:"MATCHMAKR_SNEAK_PEEK_TTL"            envDefault:"48h"`
	SneakPeekPendingLimit  int           `env:"MATCHMAKR_SNEAK_PEEK_PENDING_LIMIT"  envDefault:"5"`
	SneakPeekDisplayWindow time.Duration `env:"MATCHMAKR_SNEAK_PEEK_DISPLAY_WINDOW" envDefault:"48h"`
	NotificationCooldown   time.Duration `env:"MATCHMAKR_NOTIFICATION_COOLDOWN"     envDefault:"24h"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot start with.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("MATCHMAKR_SQLITE_PATH is required for the sqlite store")
		}
	case StoreDynamoDB:
		if strings.TrimSpace(c.AWSRegion) == "" {
			return fmt.Errorf("AWS_REGION is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("unknown MATCHMAKR_STORE %q", c.Store)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("MATCHMAKR_SWEEP_INTERVAL must be positive")
	}
	if c.SneakPeekTTL <= 0 || c.SneakPeekDisplayWindow <= 0 {
		return fmt.Errorf("sneak peek durations must be positive")
	}
	if c.SneakPeekPendingLimit <= 0 {
		return fmt.Errorf("MATCHMAKR_SNEAK_PEEK_PENDING_LIMIT must be positive")
	}
	if c.NotificationCooldown < 0 {
		return fmt.Errorf("MATCHMAKR_NOTIFICATION_COOLDOWN must not be negative")
	}
	return nil
}
