package tsdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fathomgrid/ingest-relay/internal/infrastructure/config"
)

// Default timeouts for registry operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultAssignTimeout  = 5 * time.Second
)

// maxErrorBodyBytes caps how much of a registry error response is read
// into error messages.
const maxErrorBodyBytes = 4096

// Client assigns metric name UIDs in the time-series registry.
//
// Each assignment is a single HTTP GET to the registry's assign
// endpoint. The client carries no batching or background goroutines;
// assignment happens at most once per metric name per cache window, so
// call volume is low.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	url        string
	httpClient *http.Client

	connected bool
	mu        sync.RWMutex
}

// Connect creates a registry client and verifies the endpoint is reachable.
//
// It performs the following:
//  1. Validates the configured base URL
//  2. Creates an HTTP client with the configured per-call timeout
//  3. Verifies connectivity via HealthCheck
//
// Parameters:
//   - ctx: Context for cancellation (used for the reachability check)
//   - cfg: Registry configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the URL is invalid or the registry is unreachable
func Connect(ctx context.Context, cfg config.RegistryConfig) (*Client, error) {
	base := strings.TrimRight(cfg.URL, "/")
	if _, err := url.Parse(base); err != nil || base == "" {
		return nil, fmt.Errorf("%w: invalid registry URL %q", ErrConnectionFailed, cfg.URL)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultAssignTimeout
	}

	c := &Client{
		url: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		connected: true,
	}

	healthCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := c.HealthCheck(healthCtx); err != nil {
		c.connected = false
		return nil, fmt.Errorf("%w: health check failed: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// HealthCheck verifies the registry endpoint is reachable.
//
// Any HTTP response counts as healthy. The assign endpoint answers a
// bare request with an error status, but receiving that error still
// proves the registry is up and routing requests.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if reachable, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/assign", nil)
	if err != nil {
		return fmt.Errorf("registry health check: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registry health check: %w", err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// IsConnected returns the current connection state.
//
// Note: This reflects the last known state. For reliability,
// use HealthCheck which performs an active probe.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close releases the client. The registry protocol is stateless, so
// this only marks the client disconnected.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	return nil
}

// Assign registers a fully qualified metric name with the registry.
//
// The registry assigns a UID to the name so downstream consumers can
// store data points against it. Names that already have a UID return
// ErrAlreadyAssigned; callers that only need the name to exist treat
// that the same as success.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - metric: Fully qualified metric name (e.g. "42.temperature")
//
// Returns:
//   - error: nil on fresh assignment, ErrAlreadyAssigned if the name
//     exists, or a wrapped ErrAssignFailed otherwise
func (c *Client) Assign(ctx context.Context, metric string) error {
	if metric == "" {
		return ErrInvalidMetric
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	assignURL := fmt.Sprintf("%s/assign?metric=%s", c.url, url.QueryEscape(metric))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assignURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssignFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssignFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	// The registry reports an existing UID as a per-name error inside
	// an HTTP 400 response rather than a distinct status code.
	if strings.Contains(string(body), "already exists") {
		return fmt.Errorf("%w: %s", ErrAlreadyAssigned, metric)
	}

	return fmt.Errorf("%w: HTTP %d: %s", ErrAssignFailed, resp.StatusCode, strings.TrimSpace(string(body)))
}
