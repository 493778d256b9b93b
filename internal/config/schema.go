// Package config provides configuration loading for the command line tools.
package config

import "time"

// Config is the coltools configuration file (~/.coral/coltools.yaml).
type Config struct {
	Travis TravisConfig `yaml:"travis"`

	// OutputDir is the directory build directories are created in.
	OutputDir string `yaml:"output_dir" env:"COLTOOLS_OUTPUT_DIR"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"COLTOOLS_LOG_LEVEL"`
}

// TravisConfig contains Travis CI API settings.
type TravisConfig struct {
	// Endpoint is the API base URL, e.g. https://api.travis-ci.org.
	Endpoint string `yaml:"endpoint" env:"TRAVIS_ENDPOINT"`

	// Token is sent as "Authorization: token <Token>" when set.
	Token string `yaml:"token,omitempty" env:"TRAVIS_TOKEN"`

	// APIVersion is sent in the Travis-API-Version header.
	APIVersion string `yaml:"api_version" env:"TRAVIS_API_VERSION"`

	// Timeout bounds each HTTP request, including the log download.
	Timeout time.Duration `yaml:"timeout" env:"COLTOOLS_HTTP_TIMEOUT"`
}
