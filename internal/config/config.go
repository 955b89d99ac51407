// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"data/splitledger.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	ShutdownTimeoutS int `env:"SHUTDOWN_TIMEOUT_S" envDefault:"10"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
