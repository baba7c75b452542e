// Package wiki is the typed transport client for the MediaWiki-style
// query API: it builds list/prop selectors, follows continue tokens and
// turns absence markers into not-found errors.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wikidash/wikidash/pkg/client"
	"github.com/wikidash/wikidash/pkg/logging"
)

// maxPageSize is the largest batch one query request may ask for.
const maxPageSize = 500

// NotFoundError marks a successful response that carried an absence
// marker. It is a domain condition, not a transport failure, and is
// never retried.
type NotFoundError struct {
	Entity string
	Key    string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// IsNotFound reports whether err marks a missing entity.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// Config holds the query API client configuration.
type Config struct {
	// APIURL is the api.php endpoint, e.g. https://en.wikipedia.org/w/api.php
	APIURL string

	// ArticleBaseURL is the article path root used to build article links,
	// e.g. https://en.wikipedia.org/wiki/
	ArticleBaseURL string

	Timeout            time.Duration
	MinRequestInterval time.Duration
	MaxRetries         int
	InitialBackoff     time.Duration

	// DefaultHeaders carry opaque credentials supplied by the
	// authentication collaborator, when privileged calls are needed.
	DefaultHeaders map[string]string
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiURL, articleBaseURL string) Config {
	return Config{
		APIURL:             apiURL,
		ArticleBaseURL:     articleBaseURL,
		Timeout:            30 * time.Second,
		MinRequestInterval: 100 * time.Millisecond,
		MaxRetries:         3,
		InitialBackoff:     500 * time.Millisecond,
	}
}

// Client wraps the query API. Each instance owns its own rate limiter and
// retry budget, independent of the other upstream clients.
type Client struct {
	api    *client.Client
	config Config
	logger zerolog.Logger
}

// NewClient creates a query API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api url is required")
	}

	apiCfg := client.Config{
		BaseURL:            cfg.APIURL,
		Timeout:            cfg.Timeout,
		DefaultHeaders:     cfg.DefaultHeaders,
		MinRequestInterval: cfg.MinRequestInterval,
		MaxRetries:         cfg.MaxRetries,
		InitialBackoff:     cfg.InitialBackoff,
		UserAgent:          "wikidash/0.1.0",
		DefaultParams: url.Values{
			"action":        {"query"},
			"format":        {"json"},
			"formatversion": {"2"},
		},
	}

	api, err := client.New(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	return &Client{
		api:    api,
		config: cfg,
		logger: logging.NewLogger("wiki-client"),
	}, nil
}

// GetUser fetches one account by name. A response carrying the missing
// flag yields a NotFoundError.
func (c *Client) GetUser(ctx context.Context, username string) (*UserDTO, error) {
	params := url.Values{
		"list":    {"users"},
		"ususers": {username},
		"usprop":  {"editcount|registration|groups"},
	}

	env, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	if len(env.Query.Users) == 0 || env.Query.Users[0].Missing {
		return nil, &NotFoundError{Entity: "user", Key: username}
	}

	user := env.Query.Users[0]
	return &user, nil
}

// GetUserContributions fetches up to limit contributions for a user,
// following continue tokens across as many pages as needed.
func (c *Client) GetUserContributions(ctx context.Context, username string, limit int) ([]ContributionDTO, error) {
	if limit <= 0 {
		limit = maxPageSize
	}

	contributions := make([]ContributionDTO, 0, limit)
	cont := url.Values{}

	for len(contributions) < limit {
		batch := limit - len(contributions)
		if batch > maxPageSize {
			batch = maxPageSize
		}

		params := url.Values{
			"list":    {"usercontribs"},
			"ucuser":  {username},
			"uclimit": {strconv.Itoa(batch)},
			"ucprop":  {"ids|title|timestamp|comment|sizediff|flags|tags"},
		}
		mergeContinue(params, cont)

		env, err := c.query(ctx, params)
		if err != nil {
			return nil, err
		}

		contributions = append(contributions, env.Query.UserContribs...)

		cont = continueParams(env.Continue)
		// An empty batch makes no progress; stop even if the upstream
		// keeps echoing a continue token.
		if len(cont) == 0 || len(env.Query.UserContribs) == 0 {
			break
		}
		c.logger.Debug().
			Str("username", username).
			Int("fetched", len(contributions)).
			Msg("Following continue token")
	}

	if len(contributions) > limit {
		contributions = contributions[:limit]
	}
	return contributions, nil
}

// GetRecentChanges fetches up to limit site-wide recent changes.
func (c *Client) GetRecentChanges(ctx context.Context, limit int) ([]RecentChangeDTO, error) {
	if limit <= 0 {
		limit = 50
	}

	changes := make([]RecentChangeDTO, 0, limit)
	cont := url.Values{}

	for len(changes) < limit {
		batch := limit - len(changes)
		if batch > maxPageSize {
			batch = maxPageSize
		}

		params := url.Values{
			"list":    {"recentchanges"},
			"rclimit": {strconv.Itoa(batch)},
			"rcprop":  {"title|ids|sizes|flags|user|comment|timestamp"},
		}
		mergeContinue(params, cont)

		env, err := c.query(ctx, params)
		if err != nil {
			return nil, err
		}

		changes = append(changes, env.Query.RecentChanges...)

		cont = continueParams(env.Continue)
		if len(cont) == 0 || len(env.Query.RecentChanges) == 0 {
			break
		}
	}

	if len(changes) > limit {
		changes = changes[:limit]
	}
	return changes, nil
}

// GetAllPages lists up to limit pages starting with the given prefix.
func (c *Client) GetAllPages(ctx context.Context, prefix string, limit int) ([]PageDTO, error) {
	if limit <= 0 {
		limit = 50
	}

	pages := make([]PageDTO, 0, limit)
	cont := url.Values{}

	for len(pages) < limit {
		batch := limit - len(pages)
		if batch > maxPageSize {
			batch = maxPageSize
		}

		params := url.Values{
			"list":     {"allpages"},
			"apprefix": {prefix},
			"aplimit":  {strconv.Itoa(batch)},
		}
		mergeContinue(params, cont)

		env, err := c.query(ctx, params)
		if err != nil {
			return nil, err
		}

		pages = append(pages, env.Query.AllPages...)

		cont = continueParams(env.Continue)
		if len(cont) == 0 || len(env.Query.AllPages) == 0 {
			break
		}
	}

	if len(pages) > limit {
		pages = pages[:limit]
	}
	return pages, nil
}

// GetUserLogEvents fetches up to limit log events performed by a user.
func (c *Client) GetUserLogEvents(ctx context.Context, username string, limit int) ([]LogEventDTO, error) {
	if limit <= 0 {
		limit = 50
	}

	events := make([]LogEventDTO, 0, limit)
	cont := url.Values{}

	for len(events) < limit {
		batch := limit - len(events)
		if batch > maxPageSize {
			batch = maxPageSize
		}

		params := url.Values{
			"list":    {"logevents"},
			"leuser":  {username},
			"lelimit": {strconv.Itoa(batch)},
			"leprop":  {"ids|type|title|timestamp|comment"},
		}
		mergeContinue(params, cont)

		env, err := c.query(ctx, params)
		if err != nil {
			return nil, err
		}

		events = append(events, env.Query.LogEvents...)

		cont = continueParams(env.Continue)
		if len(cont) == 0 || len(env.Query.LogEvents) == 0 {
			break
		}
	}

	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// ArticleURL builds the canonical link for an article title.
func (c *Client) ArticleURL(title string) string {
	if c.config.ArticleBaseURL == "" {
		return ""
	}
	base := strings.TrimSuffix(c.config.ArticleBaseURL, "/")
	// Escape as a URL path segment, not a query component: parentheses,
	// commas and similar title characters stay literal.
	escaped := url.URL{Path: "/" + strings.ReplaceAll(title, " ", "_")}
	return base + escaped.EscapedPath()
}

// query issues one request and decodes the envelope.
func (c *Client) query(ctx context.Context, params url.Values) (*queryEnvelope, error) {
	resp, err := c.api.Get(ctx, "", params)
	if err != nil {
		return nil, err
	}

	var env queryEnvelope
	if err := resp.JSON(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

// continueParams converts a continue block into request parameters.
// The API echoes numbers for some tokens; they go back as plain integers.
func continueParams(cont map[string]any) url.Values {
	params := url.Values{}
	for key, value := range cont {
		switch v := value.(type) {
		case string:
			params.Set(key, v)
		case float64:
			params.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			params.Set(key, fmt.Sprintf("%v", v))
		}
	}
	return params
}

func mergeContinue(params, cont url.Values) {
	for key, values := range cont {
		for _, v := range values {
			params.Set(key, v)
		}
	}
}
