package repository

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wikidash/wikidash/pkg/cache"
	"github.com/wikidash/wikidash/pkg/domain"
	"github.com/wikidash/wikidash/pkg/logging"
	"github.com/wikidash/wikidash/pkg/pageviews"
)

// defaultRecentLimit is how many contributions the dashboard lists.
const defaultRecentLimit = 50

// enrichArticleCap bounds how many distinct articles get pageview
// enrichment per refresh.
const enrichArticleCap = 5

// DashboardRepository assembles the EditorDashboard aggregate. It holds
// references to the lower repositories but does not own them; they come
// from the registry so cache hits are shared app-wide.
type DashboardRepository struct {
	users         *UserRepository
	stats         *StatsRepository
	contributions *ContributionRepository
	views         *pageviews.Client
	cache         *cache.TTLCache[domain.EditorDashboard]
	recentLimit   int
	logger        zerolog.Logger

	// lastKnown keeps the most recent successful dashboard per user with
	// no TTL, so the UI boundary can serve a stale copy while a refresh
	// fails or is in flight.
	mu        sync.Mutex
	lastKnown map[string]domain.EditorDashboard
}

// NewDashboardRepository creates a dashboard repository. views may be nil
// to disable pageview enrichment.
func NewDashboardRepository(
	users *UserRepository,
	statsRepo *StatsRepository,
	contributions *ContributionRepository,
	views *pageviews.Client,
	ttl time.Duration,
	recentLimit int,
) *DashboardRepository {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &DashboardRepository{
		users:         users,
		stats:         statsRepo,
		contributions: contributions,
		views:         views,
		cache:         cache.New[domain.EditorDashboard]("dashboards", ttl),
		recentLimit:   recentLimit,
		logger:        logging.NewLogger("dashboard-repository"),
		lastKnown:     make(map[string]domain.EditorDashboard),
	}
}

// GetDashboard returns the cached dashboard when fresh, otherwise
// refreshes it.
func (r *DashboardRepository) GetDashboard(ctx context.Context, username string) (domain.EditorDashboard, error) {
	if dashboard, ok := r.cache.Get(username); ok {
		return dashboard, nil
	}
	return r.RefreshDashboard(ctx, username)
}

// RefreshDashboard rebuilds the aggregate from scratch: user lookup,
// stats derivation and the recent-contribution fetch run concurrently,
// and if any of them fails the whole refresh fails with nothing cached.
// The join waits for every sub-fetch to settle; in-flight siblings are
// not cancelled, their results are discarded.
func (r *DashboardRepository) RefreshDashboard(ctx context.Context, username string) (domain.EditorDashboard, error) {
	started := time.Now()

	var (
		user          domain.WikiUser
		editorStats   domain.EditorStats
		contributions []domain.Contribution
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		user, err = r.users.GetUser(ctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		editorStats, err = r.stats.GetEditorStats(ctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		contributions, err = r.contributions.GetRecentContributions(ctx, username, r.recentLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		r.logger.Error().Err(err).
			Str("username", username).
			Msg("Dashboard refresh failed")
		return domain.EditorDashboard{}, err
	}

	dashboard := domain.EditorDashboard{
		User:                user,
		Stats:               editorStats,
		RecentContributions: contributions,
		ArticleViews:        r.enrichPageviews(ctx, contributions),
		Drafts:              []string{},
		Tasks:               []string{},
		FocusAreas:          []string{},
		GeneratedAt:         time.Now(),
	}

	r.cache.Set(username, dashboard)
	r.mu.Lock()
	r.lastKnown[username] = dashboard
	r.mu.Unlock()

	r.logger.Info().
		Str("username", username).
		Int("contributions", len(contributions)).
		Dur("duration", time.Since(started)).
		Msg("Dashboard refreshed")

	return dashboard, nil
}

// LastKnown returns the most recent successfully built dashboard, even
// when the TTL cache has expired it. The UI boundary serves this while a
// refresh is failing; only a user with no history at all gets an error
// state.
func (r *DashboardRepository) LastKnown(username string) (domain.EditorDashboard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dashboard, ok := r.lastKnown[username]
	return dashboard, ok
}

// Invalidate drops one user's cached dashboard. The last-known copy is
// kept for stale serving.
func (r *DashboardRepository) Invalidate(username string) {
	r.cache.Invalidate(username)
}

// enrichPageviews attaches traffic totals for the most edited articles in
// the contribution sample. Best effort: enrichment failures never fail
// the dashboard.
func (r *DashboardRepository) enrichPageviews(ctx context.Context, contributions []domain.Contribution) map[string]int64 {
	if r.views == nil || len(contributions) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	articles := make([]string, 0, enrichArticleCap)
	for _, c := range contributions {
		if c.ArticleTitle == "" || seen[c.ArticleTitle] {
			continue
		}
		seen[c.ArticleTitle] = true
		articles = append(articles, c.ArticleTitle)
		if len(articles) == enrichArticleCap {
			break
		}
	}

	end := time.Now()
	start := end.Add(-domain.DefaultLookback)
	return r.views.BatchTotals(ctx, articles, start, end, pageviews.DefaultBatchConfig())
}
