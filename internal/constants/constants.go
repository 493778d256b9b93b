// Package constants defines shared configuration constants.
package constants

import "time"

var (
	ConfigFile = "coltools.yaml"

	DefaultDir = ".coral"

	// DefaultTravisEndpoint is the Travis CI API base URL.
	DefaultTravisEndpoint = "https://api.travis-ci.org"

	// DefaultTravisAPIVersion is sent in the Travis-API-Version header.
	DefaultTravisAPIVersion = "3"

	// DefaultBuildDirPrefix prefixes the directory a build's logs are written to.
	DefaultBuildDirPrefix = "TravisCI_build_"

	DefaultUserAgent = "coltools"
)

// Timeouts - Default timeout values.
const (
	// DefaultHTTPTimeout bounds a single Travis API request, log download included.
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultQueryTimeout is the default timeout for database queries.
	DefaultQueryTimeout = 30 * time.Second
)
