// Package pageviews is the typed transport client for the pageview
// metrics API.
package pageviews

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wikidash/wikidash/pkg/client"
	"github.com/wikidash/wikidash/pkg/logging"
)

// ErrNoData marks an article with no recorded traffic. The upstream
// signals this with a 404, which must not be retried.
var ErrNoData = errors.New("no pageview data recorded")

// Config holds the metrics API client configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://metrics.example.org/api/rest_v1
	BaseURL string

	// Project is the wiki the pageviews are scoped to, e.g. "en.wikipedia".
	Project string

	// Access and Agent filter the traffic series. Defaults: all-access, user.
	Access string
	Agent  string

	Timeout            time.Duration
	MinRequestInterval time.Duration
	MaxRetries         int
	InitialBackoff     time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, project string) Config {
	return Config{
		BaseURL:            baseURL,
		Project:            project,
		Access:             "all-access",
		Agent:              "user",
		Timeout:            30 * time.Second,
		MinRequestInterval: 100 * time.Millisecond,
		MaxRetries:         3,
		InitialBackoff:     500 * time.Millisecond,
	}
}

// DailyViewsDTO is one day of an article's traffic.
type DailyViewsDTO struct {
	Article   string `json:"article"`
	Timestamp string `json:"timestamp"` // YYYYMMDD00
	Views     int64  `json:"views"`
}

type perArticleEnvelope struct {
	Items []DailyViewsDTO `json:"items"`
}

// Client wraps the metrics API with its own rate limiter and retry budget.
type Client struct {
	api    *client.Client
	config Config
	logger zerolog.Logger
}

// NewClient creates a metrics API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Project == "" {
		return nil, fmt.Errorf("project is required")
	}
	if cfg.Access == "" {
		cfg.Access = "all-access"
	}
	if cfg.Agent == "" {
		cfg.Agent = "user"
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
		logger: logging.NewLogger("pageviews-client"),
	}, nil
}

// PerArticle fetches the daily view series for one article between start
// and end (inclusive, day granularity). An article without recorded
// traffic yields ErrNoData.
func (c *Client) PerArticle(ctx context.Context, article string, start, end time.Time) ([]DailyViewsDTO, error) {
	endpoint := fmt.Sprintf("/metrics/pageviews/per-article/%s/%s/%s/%s/daily/%s/%s",
		c.config.Project,
		c.config.Access,
		c.config.Agent,
		encodeArticle(article),
		start.UTC().Format("20060102"),
		end.UTC().Format("20060102"),
	)

	resp, err := c.api.Get(ctx, endpoint, nil)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			// A 404 here means no traffic was recorded, not a failure.
			return nil, fmt.Errorf("%w: %s", ErrNoData, article)
		}
		return nil, err
	}

	var envelope perArticleEnvelope
	if err := resp.JSON(&envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

// TotalViews sums an article's daily series over the window.
func (c *Client) TotalViews(ctx context.Context, article string, start, end time.Time) (int64, error) {
	items, err := c.PerArticle(ctx, article, start, end)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, item := range items {
		total += item.Views
	}
	return total, nil
}

// encodeArticle converts a display title to the API's article form:
// spaces become underscores, the rest is path-escaped.
func encodeArticle(title string) string {
	return url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
