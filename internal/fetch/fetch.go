// Package fetch performs the blocking outbound GET used by the github route.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"sockroute/internal/version"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 20 * time.Second

// ErrTimeout is returned when the fetch did not complete in time.
var ErrTimeout = errors.New("fetch timed out")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Client fetches URLs and returns their bodies as text.
type Client struct {
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a client with the given timeout (DefaultTimeout when <= 0).
func New(timeout time.Duration, logger *slog.Logger) *Client {
	return NewWithHTTPClient(&http.Client{}, timeout, logger)
}

// NewWithHTTPClient wraps an existing http.Client. Its Timeout is overwritten.
func NewWithHTTPClient(hc *http.Client, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	hc.Timeout = timeout
	return &Client{http: hc, timeout: timeout, logger: logger}
}

// Timeout returns the configured per-fetch timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Fetch GETs url and returns the body. An empty 2xx body is returned as ""
// with a nil error; every failure is reported as an error.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept-Encoding", "gzip")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return "", fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("Fetched URL",
		"url", url,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{URL: url, Code: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("decode gzip body: %w", err)
		}
		defer func() { _ = gz.Close() }()
		body = gz
	}

	data, err := io.ReadAll(body)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

// FetchText is Fetch with every failure collapsed into "". Callers cannot
// tell an empty result from a failed fetch.
func (c *Client) FetchText(ctx context.Context, url string) string {
	body, err := c.Fetch(ctx, url)
	if err != nil {
		c.logger.Warn("Fetch failed", "url", url, "error", err.Error())
		return ""
	}
	return body
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
