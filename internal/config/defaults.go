package config

import (
	"github.com/coral-mesh/coltools/internal/constants"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Travis: TravisConfig{
			Endpoint:   constants.DefaultTravisEndpoint,
			APIVersion: constants.DefaultTravisAPIVersion,
			Timeout:    constants.DefaultHTTPTimeout,
		},
		OutputDir: ".",
		LogLevel:  "info",
	}
}
