// Package client provides the core YouTube Data API request executor with
// key rotation, error classification, and bounded retries.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shortsboard/youtube-data-client/pkg/keypool"
)

// Prometheus metrics for request execution.
var (
	ytRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_requests_total",
		Help: "Total Data API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	ytRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yt_request_duration_seconds",
		Help:    "Data API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	ytErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yt_errors_total",
		Help: "Total Data API errors by class",
	}, []string{"class"})

	ytAttemptsExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yt_attempts_exhausted_total",
		Help: "Total calls that exhausted every key in the pool",
	})
)

// DefaultBaseURL is the Data API v3 root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// DefaultTimeout bounds a single upstream request. This is the only time
// bound on a call besides the caller's context; network errors, including
// timeouts, are not retried.
const DefaultTimeout = 10 * time.Second

// Config holds the executor configuration.
type Config struct {
	// BaseURL of the Data API. Tests point this at a mock server.
	BaseURL string

	// Timeout per upstream request.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// Client executes Data API requests against the active key of a pool,
// rotating on quota exhaustion. The rotation loop is the only retry in the
// client: transport errors and non-quota upstream errors propagate after a
// single attempt.
type Client struct {
	http   *resty.Client
	pool   *keypool.Pool
	config Config
	logger zerolog.Logger
}

// New creates a request executor over the given key pool.
func New(pool *keypool.Pool, cfg Config) (*Client, error) {
	if pool == nil {
		return nil, fmt.Errorf("key pool is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	logger := log.With().Str("component", "yt-client").Logger()

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		pool:   pool,
		config: cfg,
		logger: logger,
	}, nil
}

// Execute performs one logical GET against an endpoint, injecting the pool's
// current key and rotating on quota exhaustion. Attempts are bounded by the
// pool's remaining key count, captured once at call start: a key exhausted
// mid-loop by a concurrent caller does not shrink an already-computed bound.
func (c *Client) Execute(ctx context.Context, endpoint string, params map[string]string) (*Response, error) {
	startTime := time.Now()
	defer func() {
		ytRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	maxAttempts := c.pool.Remaining()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		key, err := c.pool.Current(ctx)
		if err != nil {
			// Every key exhausted; no point looping further.
			return nil, err
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("key", key.Masked()).
			Int("attempt", attempt).
			Msg("Executing Data API request")

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("key", key.Value).
			Get(endpoint)
		if err != nil {
			ytErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			ytRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Data API request failed")
			return nil, &APIError{
				Class:   ErrorClassNetwork,
				Message: "request failed",
				Err:     err,
			}
		}

		status := resp.StatusCode()
		body := resp.Body()
		ytRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", status)).Inc()

		// Quota exhaustion hides inside a normally-shaped error body, so
		// the body is parsed regardless of status.
		var env envelope
		parseErr := json.Unmarshal(body, &env)

		parsed := &env
		if parseErr != nil {
			parsed = nil
		}

		if isQuotaExceeded(status, parsed, body) {
			ytErrorsTotal.WithLabelValues(string(ErrorClassQuota)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Str("key", key.Masked()).
				Int("attempt", attempt).
				Msg("Quota exceeded, rotating key")
			c.pool.Rotate(ctx, keypool.ReasonQuotaExceeded)
			continue
		}

		if status >= 400 {
			class := classifyStatus(status)
			ytErrorsTotal.WithLabelValues(string(class)).Inc()
			message := resp.Status()
			if parsed != nil && parsed.Error != nil && parsed.Error.Message != "" {
				message = parsed.Error.Message
			}
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", status).
				Str("error_class", string(class)).
				Msg("Data API request error")
			return nil, &APIError{
				StatusCode: status,
				Class:      class,
				Message:    message,
				Body:       body,
			}
		}

		if parseErr != nil {
			ytErrorsTotal.WithLabelValues(string(ErrorClassParse)).Inc()
			return nil, &APIError{
				StatusCode: status,
				Class:      ErrorClassParse,
				Message:    "malformed response body",
				Body:       body,
				Err:        parseErr,
			}
		}

		return env.toResponse(), nil
	}

	ytAttemptsExhaustedTotal.Inc()
	c.logger.Error().
		Str("endpoint", endpoint).
		Int("keys_tried", maxAttempts).
		Msg("All API keys exhausted")

	return nil, fmt.Errorf("%w: %d keys tried", keypool.ErrAllKeysExhausted, maxAttempts)
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}
