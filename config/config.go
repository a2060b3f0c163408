// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the storefront needs at startup. The storage
// connection string is the single credential bundle for all four
// primitives of the backing account.
type Config struct {
	StorageConnectionString string        `env:"STORAGE_CONNECTION_STRING,required,notEmpty"`
	RedisConnectionString   string        `env:"REDIS_CONNECTION_STRING"`
	ProductCacheTTL         time.Duration `env:"PRODUCT_CACHE_TTL" envDefault:"5m"`
	ListenAddr              string        `env:"LISTEN_ADDR" envDefault:":8080"`
	ConditionalUpdates      bool          `env:"CONDITIONAL_UPDATES" envDefault:"false"`
	ProcessorIdle           time.Duration `env:"PROCESSOR_IDLE" envDefault:"1s"`
	Debug                   bool          `env:"DEBUG" envDefault:"false"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
