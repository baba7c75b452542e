// Package stats is the typed transport client for the editor statistics
// API (path-parameterized GET endpoints).
package stats

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/wikidash/wikidash/pkg/client"
	"github.com/wikidash/wikidash/pkg/logging"
)

// Config holds the statistics API client configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://stats.example.org/api
	BaseURL string

	// Site identifies the wiki the statistics are scoped to,
	// e.g. "en.wikipedia.org".
	Site string

	Timeout            time.Duration
	MinRequestInterval time.Duration
	MaxRetries         int
	InitialBackoff     time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, site string) Config {
	return Config{
		BaseURL:            baseURL,
		Site:               site,
		Timeout:            30 * time.Second,
		MinRequestInterval: 200 * time.Millisecond,
		MaxRetries:         3,
		InitialBackoff:     500 * time.Millisecond,
	}
}

// Client wraps the statistics API with its own rate limiter and retry
// budget, independent of the other upstream clients.
type Client struct {
	api    *client.Client
	config Config
	logger zerolog.Logger
}

// NewClient creates a statistics API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Site == "" {
		return nil, fmt.Errorf("site is required")
	}

	api, err := client.New(client.Config{
		BaseURL:            cfg.BaseURL,
		Timeout:            cfg.Timeout,
		MinRequestInterval: cfg.MinRequestInterval,
		MaxRetries:         cfg.MaxRetries,
		InitialBackoff:     cfg.InitialBackoff,
		UserAgent:          "wikidash/0.1.0",
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	return &Client{
		api:    api,
		config: cfg,
		logger: logging.NewLogger("stats-client"),
	}, nil
}

// SimpleEditCount fetches live/deleted edit totals for a user.
func (c *Client) SimpleEditCount(ctx context.Context, username string) (*EditCountDTO, error) {
	endpoint := fmt.Sprintf("/user/simple_editcount/%s/%s", c.config.Site, url.PathEscape(username))

	resp, err := c.api.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var dto EditCountDTO
	if err := resp.JSON(&dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

// MonthCounts fetches per-month edit counts by namespace for a user.
func (c *Client) MonthCounts(ctx context.Context, username string) (*MonthCountsDTO, error) {
	endpoint := fmt.Sprintf("/user/month_counts/%s/%s", c.config.Site, url.PathEscape(username))

	resp, err := c.api.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var dto MonthCountsDTO
	if err := resp.JSON(&dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

// TopEdits fetches the user's most-edited pages in a namespace.
func (c *Client) TopEdits(ctx context.Context, username string, ns, limit int) ([]TopEditDTO, error) {
	endpoint := fmt.Sprintf("/user/top_edits/%s/%s/%d/%d",
		c.config.Site, url.PathEscape(username), ns, limit)

	resp, err := c.api.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var envelope topEditsEnvelope
	if err := resp.JSON(&envelope); err != nil {
		return nil, err
	}
	return envelope.TopEdits, nil
}

// NamespaceTotals fetches the user's edit totals per namespace, keyed by
// namespace number.
func (c *Client) NamespaceTotals(ctx context.Context, username string) (map[int]int, error) {
	endpoint := fmt.Sprintf("/user/namespace_totals/%s/%s", c.config.Site, url.PathEscape(username))

	resp, err := c.api.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var envelope namespaceTotalsEnvelope
	if err := resp.JSON(&envelope); err != nil {
		return nil, err
	}

	totals := make(map[int]int, len(envelope.NamespaceTotals))
	for nsStr, count := range envelope.NamespaceTotals {
		ns, convErr := strconv.Atoi(nsStr)
		if convErr != nil {
			c.logger.Warn().Str("namespace", nsStr).Msg("Skipping unparseable namespace key")
			continue
		}
		totals[ns] = count
	}
	return totals, nil
}
