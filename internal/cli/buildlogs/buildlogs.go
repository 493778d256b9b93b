// Package buildlogs implements the command that downloads the job logs of a
// Travis CI build.
package buildlogs

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/coral-mesh/coltools/internal/cli/helpers"
	"github.com/coral-mesh/coltools/internal/config"
	"github.com/coral-mesh/coltools/internal/travis"
)

type options struct {
	configPath string
	endpoint   string
	token      string
	output     string
	logLevel   string
}

// NewBuildLogsCmd creates the build-logs command. use is the command name,
// which differs between the coltools subcommand and the standalone binary.
func NewBuildLogsCmd(use string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   use + " <build-id>",
		Short: "Download the job logs of a Travis CI build",
		Long: `Download the log of every job of a Travis CI build.

The jobs are listed through the Travis CI v3 API. Each log is requested
gzip-compressed and written unchanged to
<output>/TravisCI_build_<build-id>/job_<number>.<job-id>.log.gz,
replacing any existing file.

A job whose log cannot be downloaded is reported as a warning and skipped;
the command still succeeds.`,
		Example: `  # Download into ./TravisCI_build_123456789
  ` + use + ` 123456789

  # Use the travis-ci.com API with a token
  TRAVIS_TOKEN=... ` + use + ` --endpoint https://api.travis-ci.com 123456789`,
		Args: validateArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.coral/coltools.yaml)")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "Travis CI API endpoint (env TRAVIS_ENDPOINT)")
	cmd.Flags().StringVar(&opts.token, "token", "", "Travis CI API token (env TRAVIS_TOKEN)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Directory the build directory is created in (env COLTOOLS_OUTPUT_DIR)")
	helpers.AddLogLevelFlag(cmd, &opts.logLevel, "")

	return cmd
}

// validateArgs rejects a missing or non-numeric build id before any request is made.
func validateArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected exactly one build id, got %d arguments", travis.ErrUsage, len(args))
	}
	return travis.ValidateBuildID(args[0])
}

func run(cmd *cobra.Command, opts *options, buildID string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger := helpers.NewLogger(cmd, cfg.LogLevel, "build-logs")

	client := travis.NewClient(cfg.Travis.Endpoint,
		travis.WithToken(cfg.Travis.Token),
		travis.WithAPIVersion(cfg.Travis.APIVersion),
		travis.WithHTTPClient(&http.Client{Timeout: cfg.Travis.Timeout}),
		travis.WithLogger(logger),
	)

	result, err := travis.NewFetcher(client, cfg.OutputDir, logger).Fetch(cmd.Context(), buildID)
	if err != nil {
		return fmt.Errorf("failed to fetch build %s: %w", buildID, err)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), renderSummary(result))
	return err
}

// loadConfig layers flags over environment over the config file.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.NewLoader().Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Travis.Endpoint = opts.endpoint
	}
	if flags.Changed("token") {
		cfg.Travis.Token = opts.token
	}
	if flags.Changed("output") {
		cfg.OutputDir = opts.output
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
