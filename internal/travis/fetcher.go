package travis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/coltools/internal/constants"
	"github.com/coral-mesh/coltools/internal/errors"
)

// Fetcher downloads every job log of a build into one directory.
type Fetcher struct {
	client    *Client
	outputDir string
	logger    zerolog.Logger
}

// NewFetcher creates a fetcher writing build directories below outputDir.
func NewFetcher(client *Client, outputDir string, logger zerolog.Logger) *Fetcher {
	if outputDir == "" {
		outputDir = "."
	}
	return &Fetcher{
		client:    client,
		outputDir: outputDir,
		logger:    logger,
	}
}

// BuildDir returns the directory the logs of buildID are written to.
func (f *Fetcher) BuildDir(buildID string) string {
	return filepath.Join(f.outputDir, constants.DefaultBuildDirPrefix+buildID)
}

// Fetch validates buildID, lists its jobs and downloads each job log.
//
// An invalid id, a failed listing, an empty job list or a directory that
// cannot be created abort the fetch. A failed log download does not: it is
// logged, recorded in Result.Failed and the next job is processed.
func (f *Fetcher) Fetch(ctx context.Context, buildID string) (*Result, error) {
	if err := ValidateBuildID(buildID); err != nil {
		return nil, err
	}

	logger := f.logger.With().Str("build_id", buildID).Logger()
	logger.Info().Str("url", f.client.BuildURL(buildID)).Msg("Fetching build jobs")

	build, err := f.client.GetBuild(ctx, buildID)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(build.Jobs))
	for _, job := range build.Jobs {
		if job.ID <= 0 {
			logger.Warn().Str("job_number", string(job.Number)).Msg("Skipping job without id")
			continue
		}
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("build %s: %w", buildID, ErrNoJobs)
	}

	dir := f.BuildDir(buildID)
	//nolint:gosec // G301: Log directories are meant to be browsable.
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	result := &Result{
		BuildID: buildID,
		Dir:     dir,
		Jobs:    jobs,
	}

	for _, job := range jobs {
		path := filepath.Join(dir, job.LogFileName())
		jobLogger := logger.With().Int64("job_id", job.ID).Str("job_number", string(job.Number)).Logger()

		n, err := f.download(ctx, jobLogger, job, path)
		if err != nil {
			jobLogger.Warn().Err(err).Msg("Failed to download job log")
			result.Failed = append(result.Failed, JobFailure{Job: job, Err: err})
			continue
		}

		jobLogger.Info().Str("path", path).Int64("bytes", n).Msg("Downloaded job log")
		result.Downloaded = append(result.Downloaded, path)
	}

	return result, nil
}

// download writes one job log to path, replacing any existing file. The
// file is removed again when the download fails.
func (f *Fetcher) download(ctx context.Context, logger zerolog.Logger, job Job, path string) (n int64, err error) {
	//nolint:gosec // G304: path is built from the output dir and API ids.
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create log file: %w", err)
	}
	defer errors.RemoveOnError(logger, path, &err)
	defer errors.CloseInto(file, &err)

	return f.client.DownloadLog(ctx, job.ID, file)
}
