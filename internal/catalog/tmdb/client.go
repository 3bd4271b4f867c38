// Package tmdb implements catalog.Client against a TMDB-compatible REST API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tofixx/mymovieflip/internal/catalog"
	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/metrics"
	"github.com/tofixx/mymovieflip/internal/utils"
	"github.com/tofixx/mymovieflip/internal/version"
)

const (
	breakerName  = "tmdb-api"
	maxBodyBytes = 4 << 20
)

// Options configures the client. Zero values get sensible defaults.
type Options struct {
	BaseURL      string        // ex: https://api.themoviedb.org/3
	Token        string        // optional initial bearer
	Timeout      time.Duration // per-call HTTP timeout
	RatePerSec   float64       // outbound request rate
	Burst        int           // outbound burst
	FailureRatio float64       // breaker trips at failures/requests >= ratio
	MinRequests  int           // breaker needs this many requests in the window
	OpenTimeout  time.Duration // breaker open -> half-open delay
	HTTPClient   *http.Client  // optional, for tests
}

// Client talks to the catalog API. All calls go through a rate limiter and
// a circuit breaker; authorization and not-found answers do not count as
// breaker failures.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	logger  logger.Logger

	mu    sync.RWMutex
	token string
}

// New creates a catalog client.
func New(opts Options, log logger.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 20
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if opts.FailureRatio <= 0 {
		opts.FailureRatio = 0.6
	}
	if opts.MinRequests <= 0 {
		opts.MinRequests = 10
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Burst),
		logger:  log,
		token:   opts.Token,
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(opts.MinRequests) {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= opts.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, catalog.ErrUnauthorized) ||
				errors.Is(err, catalog.ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("catalog circuit breaker state change",
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return c
}

// SetToken replaces the bearer used for subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// get issues a GET on path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	token := c.bearer()
	if token == "" {
		return catalog.ErrMissingToken
	}

	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("catalog rate limiter: %w", err)
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, path, params, token)
	})
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "rejected"
			err = fmt.Errorf("%w: %v", catalog.ErrUnavailable, err)
		case errors.Is(err, catalog.ErrUnauthorized):
			outcome = "unauthorized"
		}
		metrics.ObserveCatalog(endpoint, outcome, start)
		return err
	}
	metrics.ObserveCatalog(endpoint, "ok", start)

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values, token string) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request %s failed: %w", path, err)
	}
	defer utils.Close(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, catalog.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, catalog.ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("catalog request %s failed: status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}
	return body, nil
}
