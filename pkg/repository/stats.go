package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wikidash/wikidash/pkg/cache"
	"github.com/wikidash/wikidash/pkg/domain"
	"github.com/wikidash/wikidash/pkg/logging"
	"github.com/wikidash/wikidash/pkg/stats"
)

// statsSampleSize is how many recent contributions feed the classified
// counters and the daily activity series.
const statsSampleSize = 500

// StatsRepository derives aggregated editor statistics from the
// statistics API joined with a recent-contribution sample.
type StatsRepository struct {
	stats         *stats.Client
	contributions *ContributionRepository
	cache         *cache.TTLCache[domain.EditorStats]
	lookback      time.Duration
	logger        zerolog.Logger

	// now is swappable for deterministic activity windows in tests.
	now func() time.Time
}

// NewStatsRepository creates a stats repository owning its own cache.
// A non-positive lookback falls back to the 30 day default.
func NewStatsRepository(statsClient *stats.Client, contributions *ContributionRepository, ttl, lookback time.Duration) *StatsRepository {
	if lookback <= 0 {
		lookback = domain.DefaultLookback
	}
	return &StatsRepository{
		stats:         statsClient,
		contributions: contributions,
		cache:         cache.New[domain.EditorStats]("stats", ttl),
		lookback:      lookback,
		logger:        logging.NewLogger("stats-repository"),
		now:           time.Now,
	}
}

// GetEditorStats returns aggregate counters plus the daily activity
// series. The statistics API call and the contribution fetch run
// concurrently; both must succeed. The join waits for both to settle and
// surfaces the first error without cancelling the sibling.
func (r *StatsRepository) GetEditorStats(ctx context.Context, username string) (domain.EditorStats, error) {
	if cached, ok := r.cache.Get(username); ok {
		return cached, nil
	}

	var (
		editCount     *stats.EditCountDTO
		contributions []domain.Contribution
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		editCount, err = r.stats.SimpleEditCount(ctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		contributions, err = r.contributions.GetRecentContributions(ctx, username, statsSampleSize)
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.EditorStats{}, err
	}

	editorStats := domain.EditorStats{
		TotalEdits: editCount.TotalEditCount,
	}
	domain.TallyContributions(&editorStats, contributions)
	editorStats.RecentActivity = domain.DeriveDailyActivity(contributions, r.lookback, r.now())

	r.cache.Set(username, editorStats)

	r.logger.Debug().
		Str("username", username).
		Int("total_edits", editorStats.TotalEdits).
		Int("active_days", len(editorStats.RecentActivity)).
		Msg("Editor stats derived and cached")

	return editorStats, nil
}

// Invalidate drops one user's cached stats.
func (r *StatsRepository) Invalidate(username string) {
	r.cache.Invalidate(username)
}
