// Package client provides the resilient HTTP client underlying every
// transport client: rate limiting, retry with backoff, and error
// classification.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/wikidash/wikidash/pkg/logging"
	"github.com/wikidash/wikidash/pkg/ratelimit"
)

// Prometheus metrics for upstream requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikidash_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wikidash_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikidash_errors_total",
		Help: "Total upstream errors by code",
	}, []string{"code"})
)

// Config holds the client configuration. Each transport client owns one
// Client instance, so rate limiting and retry budgets are per upstream.
type Config struct {
	// BaseURL is the upstream root; endpoint paths are joined onto it.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// DefaultHeaders are sent with every request. This is where an
	// authentication collaborator injects opaque credentials.
	DefaultHeaders map[string]string

	// DefaultParams are merged into every request's query string.
	DefaultParams url.Values

	// MinRequestInterval is the minimum spacing between outbound
	// attempts, retries included.
	MinRequestInterval time.Duration

	// Retry budget
	MaxRetries     int
	InitialBackoff time.Duration

	// UserAgent identifies this client to the upstream.
	UserAgent string
}

// DefaultConfig returns a safe default configuration for an upstream.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:            baseURL,
		Timeout:            30 * time.Second,
		MinRequestInterval: 100 * time.Millisecond,
		MaxRetries:         3,
		InitialBackoff:     500 * time.Millisecond,
		UserAgent:          "wikidash/0.1.0",
	}
}

// Response is a normalized successful upstream response.
type Response struct {
	Data    []byte
	Status  int
	Headers http.Header
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Client issues rate-limited, retried HTTP requests and returns normalized
// responses or classified errors.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	retry      *Executor
	config     Config
	logger     zerolog.Logger
}

// New creates a client for one upstream API.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := logging.NewLogger("api-client").With().
		Str("base_url", cfg.BaseURL).Logger()

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    ratelimit.New(cfg.MinRequestInterval),
		retry:      NewExecutor(cfg.MaxRetries, cfg.InitialBackoff, logger),
		config:     cfg,
		logger:     logger,
	}, nil
}

// Get performs a GET request against an endpoint path.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil, params)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPost, endpoint, body, params)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodPut, endpoint, body, params)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil, params)
}

// do is the core request path: merge and strip params, then for every
// attempt acquire the rate limiter, issue the request and classify the
// outcome, with the retry executor driving the attempt loop.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, params url.Values) (*Response, error) {
	reqURL, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	var result *Response
	retryErr := c.retry.Do(ctx, func(ctx context.Context) error {
		// Every attempt goes through the limiter, retries included.
		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}

		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for key, value := range c.config.DefaultHeaders {
			req.Header.Set(key, value)
		}

		start := time.Now()
		resp, reqErr := c.httpClient.Do(req)
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

		if reqErr != nil {
			apiErr := Classify(nil, reqErr)
			errorsTotal.WithLabelValues(string(apiErr.Code)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Error().Err(reqErr).
				Str("method", method).
				Str("endpoint", endpoint).
				Msg("HTTP request failed")
			return apiErr
		}
		defer resp.Body.Close()

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			apiErr := Classify(nil, readErr)
			errorsTotal.WithLabelValues(string(apiErr.Code)).Inc()
			return apiErr
		}

		requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			apiErr := Classify(resp, nil)
			errorsTotal.WithLabelValues(string(apiErr.Code)).Inc()
			c.logger.Warn().
				Str("method", method).
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_code", string(apiErr.Code)).
				Msg("Upstream request error")
			return apiErr
		}

		result = &Response{
			Data:    data,
			Status:  resp.StatusCode,
			Headers: resp.Header,
		}
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}
	return result, nil
}

// buildURL joins the endpoint onto the base URL and merges default params
// with call params, dropping empty values.
func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	base := strings.TrimSuffix(c.config.BaseURL, "/")
	if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	u, err := url.Parse(base + endpoint)
	if err != nil {
		return "", fmt.Errorf("build request url: %w", err)
	}

	merged := u.Query()
	for key, values := range c.config.DefaultParams {
		for _, v := range values {
			if v != "" {
				merged.Set(key, v)
			}
		}
	}
	for key, values := range params {
		for _, v := range values {
			if v != "" {
				merged.Set(key, v)
			}
		}
	}
	u.RawQuery = merged.Encode()

	return u.String(), nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
