// Package feeds fetches and decodes the upstream data the catalog is built
// from: operator route lists, the route and fare data sheet, live stop
// sequences and the government headway GTFS feed.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzhttp"

	"routecatalog.transit.hk/internal/logging"
)

// ErrUnexpectedStatus is returned when an upstream answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client downloads feeds. Transport failures and 5xx answers are retried;
// other statuses fail immediately.
type Client struct {
	http       *http.Client
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient wraps httpClient's transport with transparent gzip handling. A nil
// httpClient gets a 30 second timeout.
func NewClient(httpClient *http.Client, retries int, retryDelay time.Duration, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	wrapped := *httpClient
	parent := wrapped.Transport
	if parent == nil {
		parent = http.DefaultTransport
	}
	wrapped.Transport = gzhttp.Transport(parent)
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:       &wrapped,
		retries:    max(0, retries),
		retryDelay: retryDelay,
		logger:     logger.With(slog.String("component", "feed_client")),
	}
}

// Get returns the body at source. Sources without an http or https scheme are
// read from the local filesystem.
func (c *Client) Get(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local feed: %w", err)
		}
		return b, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}
		body, retry, err := c.get(ctx, source)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		c.logger.Warn("feed_request_retry",
			slog.String("url", source),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, source string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("error downloading %s: %w", source, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode >= 500, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, source)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("error reading %s: %w", source, err)
	}
	return b, false, nil
}

// GetJSON decodes the body at source into v.
func (c *Client) GetJSON(ctx context.Context, source string, v any) error {
	b, err := c.Get(ctx, source)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("error decoding %s: %w", source, err)
	}
	return nil
}
