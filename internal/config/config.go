// Package config loads engine settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Profile selects a preset balance between footprint and throughput.
type Profile string

const (
	ProfileLow     Profile = "low"
	ProfileDefault Profile = "default"
	ProfileHigh    Profile = "high"
)

type (
	// Config is the full engine configuration. Zero values defer to the
	// selected profile.
	Config struct {
		Profile Profile `env:"PROFILE" envDefault:"default"`
		Logger  Logger  `envPrefix:"LOG_"`
		Cache   Cache   `envPrefix:"CACHE_"`
		Loader  Loader  `envPrefix:"LOADER_"`
		Pyramid Pyramid `envPrefix:"PYRAMID_"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Cache struct {
		// Capacity is the number of tiles held in memory.
		Capacity int `env:"CAPACITY"`
	}

	Loader struct {
		MaxConcurrent    int           `env:"MAX_CONCURRENT"`
		MaxRetries       int           `env:"MAX_RETRIES" envDefault:"2"`
		RetryDelay       time.Duration `env:"RETRY_DELAY" envDefault:"100ms"`
		QueueCapacity    int           `env:"QUEUE_CAPACITY" envDefault:"1000"`
		PrefetchEnabled  bool          `env:"PREFETCH" envDefault:"true"`
		MaxPrefetchTiles int           `env:"MAX_PREFETCH_TILES" envDefault:"16"`
		NetworkAdaptive  bool          `env:"NETWORK_ADAPTIVE" envDefault:"true"`
	}

	Pyramid struct {
		TileSize        int           `env:"TILE_SIZE" envDefault:"256"`
		MinZoom         uint8         `env:"MIN_ZOOM" envDefault:"0"`
		MaxZoom         uint8         `env:"MAX_ZOOM" envDefault:"19"`
		KeepBuffer      uint32        `env:"KEEP_BUFFER" envDefault:"2"`
		RetentionWindow time.Duration `env:"RETENTION_WINDOW" envDefault:"30s"`
	}
)

// New reads configuration from the environment under the TILEMAP_ prefix.
// A missing .env file is not an error.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "TILEMAP_"})
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyProfile()
	return &cfg, nil
}

// Default returns the configuration with no environment applied.
func Default() *Config {
	cfg := &Config{
		Profile: ProfileDefault,
		Logger:  Logger{Level: "info"},
		Loader: Loader{
			MaxRetries:       2,
			RetryDelay:       100 * time.Millisecond,
			QueueCapacity:    1000,
			PrefetchEnabled:  true,
			MaxPrefetchTiles: 16,
			NetworkAdaptive:  true,
		},
		Pyramid: Pyramid{
			TileSize:        256,
			MaxZoom:         19,
			KeepBuffer:      2,
			RetentionWindow: 30 * time.Second,
		},
	}
	cfg.applyProfile()
	return cfg
}

// applyProfile fills unset capacity and concurrency from the profile.
func (c *Config) applyProfile() {
	var capacity, concurrent int
	switch c.Profile {
	case ProfileLow:
		capacity, concurrent = 256, 16
	case ProfileHigh:
		capacity, concurrent = 4096, 128
	default:
		capacity, concurrent = 1024, 64
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = capacity
	}
	if c.Loader.MaxConcurrent <= 0 {
		c.Loader.MaxConcurrent = concurrent
	}
}
