// internal/config/config.go
package config

import (
	"fmt"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds the process configuration, read from the environment.
type Config struct {
	Port           int    `env:"STOREFRONT_PORT,default=8080"`
	DataDir        string `env:"STOREFRONT_DATA_DIR,default=."`
	Environment    string `env:"STOREFRONT_ENV,default=local"`
	TracingEnabled bool   `env:"STOREFRONT_TRACING_ENABLED,default=false"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT,default=localhost:4318"`
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present in the working directory.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration from environment: %w", err)
	}
	return &cfg, nil
}
