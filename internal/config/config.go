// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/cozycove/cozycove/internal/ingest"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache and stream (Redis)
	RedisURL          string `env:"REDIS_URL,required"`
	RedisPoolSize     int    `env:"REDIS_POOL_SIZE" envDefault:"16"`
	RedisMinIdleConns int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Marketplace feed
	MarketplaceBaseURL    string `env:"MARKETPLACE_BASE_URL" envDefault:"https://api-sg.aliexpress.com/sync"`
	MarketplaceTrackingID string `env:"MARKETPLACE_TRACKING_ID" envDefault:""`

	// Catalog refresh
	IngestInterval time.Duration `env:"INGEST_INTERVAL" envDefault:"6h"`
	IngestPageSize int           `env:"INGEST_PAGE_SIZE" envDefault:"50"`

	// Comma-separated collection specs: "name|keywords|categoryIDs|maxPrice"
	// (e.g. "cozy-mugs|ceramic mug||30,throw-blankets|throw blanket|200000345|80")
	IngestCollections string `env:"INGEST_COLLECTIONS" envDefault:""`

	// Operational surface (health probes and Prometheus scrape endpoint)
	OpsAddr        string `env:"OPS_ADDR" envDefault:":9090"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`

	// Lifecycle
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetIngestCollections parses the collection spec string.
// Malformed entries are skipped rather than failing startup.
func (c *Config) GetIngestCollections() []ingest.Collection {
	if c.IngestCollections == "" {
		return nil
	}

	specs := strings.Split(c.IngestCollections, ",")
	result := make([]ingest.Collection, 0, len(specs))

	for _, spec := range specs {
		parts := strings.Split(strings.TrimSpace(spec), "|")
		if len(parts) < 2 || parts[0] == "" {
			continue
		}

		collection := ingest.Collection{
			Name:     strings.TrimSpace(parts[0]),
			Keywords: strings.TrimSpace(parts[1]),
		}
		if len(parts) > 2 {
			collection.CategoryIDs = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			if maxPrice, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64); err == nil {
				collection.MaxPrice = maxPrice
			}
		}

		result = append(result, collection)
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
