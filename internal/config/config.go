package config

import (
	"github.com/caarlos0/env/v11"

	"rtb-engine/internal/config/configs"
)

// Config aggregates all configuration sections for the bidder. Fields
// are populated from environment variables using the caarlos0/env
// library; the nested structs are tagged with envPrefix so their fields
// are parsed with the given prefix. See the individual types in the
// configs package for defaults. Use Load to construct a Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev). Only
	// surfaced in logs.
	Env string `env:"ENV" envDefault:"prod"`

	// HTTP holds configuration for the HTTP server. Environment
	// variables prefixed with HTTP_ populate this struct.
	HTTP configs.HTTP `envPrefix:"HTTP_"`

	// Log configures the structured logger (LOG_ prefix).
	Log configs.Logger `envPrefix:"LOG_"`

	// Redis configures the campaign store connection (REDIS_ prefix).
	Redis configs.Redis `envPrefix:"REDIS_"`

	// Engine tunes the decision pipeline (ENGINE_ prefix).
	Engine configs.Engine `envPrefix:"ENGINE_"`
}

// Load reads configuration from environment variables into a Config. If
// parsing fails, an error is returned. All fields are loaded with their
// specified defaults when no environment variable is provided.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
