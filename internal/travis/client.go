package travis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/coltools/internal/constants"
	"github.com/coral-mesh/coltools/internal/errors"
)

// maxErrorBody caps how much of an error response is kept in StatusError.
const maxErrorBody = 4096

// Client talks to the Travis CI v3 API. Requests are never retried.
type Client struct {
	endpoint   string
	token      string
	apiVersion string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken authenticates requests with "Authorization: token <token>".
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithAPIVersion overrides the Travis-API-Version header (default "3").
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets the HTTP client, e.g. one with a timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API rooted at endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiVersion: constants.DefaultTravisAPIVersion,
		userAgent:  constants.DefaultUserAgent,
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildURL returns the URL of the build resource with its jobs embedded.
func (c *Client) BuildURL(buildID string) string {
	return fmt.Sprintf("%s/build/%s?include=build.jobs", c.endpoint, buildID)
}

// LogURL returns the URL of a job's plain text log.
func (c *Client) LogURL(jobID int64) string {
	return fmt.Sprintf("%s/job/%d/log.txt", c.endpoint, jobID)
}

// GetBuild fetches a build and its jobs.
func (c *Client) GetBuild(ctx context.Context, buildID string) (*Build, error) {
	url := c.BuildURL(buildID)

	req, err := c.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer errors.DeferClose(c.logger, resp.Body, "Failed to close build response body")

	var build Build
	if err := json.NewDecoder(resp.Body).Decode(&build); err != nil {
		return nil, fmt.Errorf("failed to decode build %s: %w", buildID, err)
	}
	return &build, nil
}

// DownloadLog streams the log of job jobID to w and returns the number of
// bytes written. The log is requested gzip-compressed and written as
// received, without decompression.
func (c *Client) DownloadLog(ctx context.Context, jobID int64, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, c.LogURL(jobID))
	if err != nil {
		return 0, err
	}
	// Setting Accept-Encoding ourselves disables the transport's transparent
	// decompression, so the body stays gzip.
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer errors.DeferClose(c.logger, resp.Body, "Failed to close log response body")

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read log of job %d: %w", jobID, err)
	}
	return n, nil
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Travis-API-Version", c.apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	return req, nil
}

// do sends req and turns a non-2xx response into a *StatusError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	c.logger.Debug().Str("url", req.URL.String()).Msg("GET")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer errors.DeferClose(c.logger, resp.Body, "Failed to close error response body")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	return resp, nil
}
