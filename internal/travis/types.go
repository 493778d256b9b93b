// Package travis downloads the job logs of a Travis CI build through the
// v3 REST API.
//
// The procedure is sequential: the build is fetched with its jobs embedded,
// a directory named after the build is created, and every job log is
// streamed to a gzip file in that directory. A job whose log cannot be
// downloaded is reported and skipped.
package travis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUsage is returned for a missing or non-numeric build id.
	ErrUsage = errors.New("usage: build id must be a string of digits")

	// ErrNoJobs is returned when the build listing contains no jobs.
	ErrNoJobs = errors.New("build has no jobs")
)

// StatusError is returned for a non-2xx API response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: unexpected status %d: %s", e.URL, e.StatusCode, body)
}

// Build is the subset of the v3 build resource the fetcher needs.
type Build struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
	State  string `json:"state"`
	Jobs   []Job  `json:"jobs"`
}

// Job is one job of a build. Number is the human-facing job number,
// e.g. "1234.2".
type Job struct {
	ID     int64     `json:"id"`
	Number JobNumber `json:"number"`
	State  string    `json:"state"`
}

// LogFileName returns the name the job's log is stored under. Path
// separators in the job number are replaced so the name stays a single
// path element inside the build directory.
func (j Job) LogFileName() string {
	number := strings.NewReplacer("/", "_", `\`, "_").Replace(string(j.Number))
	return fmt.Sprintf("job_%s.%d.log.gz", number, j.ID)
}

// JobNumber accepts both JSON strings and numbers.
type JobNumber string

// UnmarshalJSON implements json.Unmarshaler.
func (n *JobNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = JobNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("job number: %w", err)
	}
	*n = JobNumber(num.String())
	return nil
}

// JobFailure records a job whose log could not be downloaded.
type JobFailure struct {
	Job Job
	Err error
}

// Result summarizes one fetch.
type Result struct {
	BuildID    string
	Dir        string
	Jobs       []Job
	Downloaded []string
	Failed     []JobFailure
}

// ValidateBuildID checks that arg is a non-empty string of ASCII digits.
func ValidateBuildID(arg string) error {
	if arg == "" {
		return fmt.Errorf("%w: missing build id", ErrUsage)
	}
	for _, r := range arg {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: got %q", ErrUsage, arg)
		}
	}
	return nil
}
