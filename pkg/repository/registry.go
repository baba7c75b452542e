package repository

import (
	"fmt"
	"time"

	"github.com/wikidash/wikidash/pkg/pageviews"
	"github.com/wikidash/wikidash/pkg/stats"
	"github.com/wikidash/wikidash/pkg/wiki"
)

// Config wires the whole repository stack.
type Config struct {
	Wiki  wiki.Config
	Stats stats.Config

	// Pageviews is optional; leave BaseURL empty to disable enrichment.
	Pageviews pageviews.Config

	UserTTL         time.Duration
	ContributionTTL time.Duration
	StatsTTL        time.Duration
	DashboardTTL    time.Duration

	// Lookback bounds the daily activity derivation.
	Lookback time.Duration

	// RecentLimit is how many contributions the dashboard lists.
	RecentLimit int
}

// DefaultConfig returns registry defaults for the given upstreams.
func DefaultConfig(wikiCfg wiki.Config, statsCfg stats.Config) Config {
	return Config{
		Wiki:            wikiCfg,
		Stats:           statsCfg,
		UserTTL:         10 * time.Minute,
		ContributionTTL: 5 * time.Minute,
		StatsTTL:        10 * time.Minute,
		DashboardTTL:    5 * time.Minute,
		Lookback:        30 * 24 * time.Hour,
		RecentLimit:     defaultRecentLimit,
	}
}

// Registry constructs each repository and its cache exactly once per
// process and hands the same instances to every consumer, so cache hits
// are shared app-wide. It replaces hidden module-level singletons with
// one explicitly built object graph.
type Registry struct {
	users         *UserRepository
	contributions *ContributionRepository
	stats         *StatsRepository
	dashboards    *DashboardRepository
}

// NewRegistry builds the transport clients and the repository graph.
func NewRegistry(cfg Config) (*Registry, error) {
	wikiClient, err := wiki.NewClient(cfg.Wiki)
	if err != nil {
		return nil, fmt.Errorf("create wiki client: %w", err)
	}

	statsClient, err := stats.NewClient(cfg.Stats)
	if err != nil {
		return nil, fmt.Errorf("create stats client: %w", err)
	}

	var viewsClient *pageviews.Client
	if cfg.Pageviews.BaseURL != "" {
		viewsClient, err = pageviews.NewClient(cfg.Pageviews)
		if err != nil {
			return nil, fmt.Errorf("create pageviews client: %w", err)
		}
	}

	users := NewUserRepository(wikiClient, cfg.UserTTL)
	contributions := NewContributionRepository(wikiClient, cfg.ContributionTTL)
	statsRepo := NewStatsRepository(statsClient, contributions, cfg.StatsTTL, cfg.Lookback)
	dashboards := NewDashboardRepository(users, statsRepo, contributions, viewsClient, cfg.DashboardTTL, cfg.RecentLimit)

	return &Registry{
		users:         users,
		contributions: contributions,
		stats:         statsRepo,
		dashboards:    dashboards,
	}, nil
}

// Users returns the shared user repository.
func (r *Registry) Users() *UserRepository {
	return r.users
}

// Contributions returns the shared contribution repository.
func (r *Registry) Contributions() *ContributionRepository {
	return r.contributions
}

// Stats returns the shared stats repository.
func (r *Registry) Stats() *StatsRepository {
	return r.stats
}

// Dashboards returns the shared dashboard repository.
func (r *Registry) Dashboards() *DashboardRepository {
	return r.dashboards
}
