package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikidash/wikidash/internal/testutil"
	"github.com/wikidash/wikidash/pkg/domain"
	"github.com/wikidash/wikidash/pkg/stats"
	"github.com/wikidash/wikidash/pkg/wiki"
)

type fixtures struct {
	registry *Registry
	wiki     *testutil.MockUpstream
	stats    *testutil.MockUpstream
	config   Config
}

func newFixtures(t *testing.T) *fixtures {
	t.Helper()

	wikiMock := testutil.NewMockUpstream()
	t.Cleanup(wikiMock.Close)
	statsMock := testutil.NewMockUpstream()
	t.Cleanup(statsMock.Close)

	recent := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	older := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)

	wikiMock.SetQueryHandler(map[string]any{
		"users": map[string]any{
			"query": map[string]any{
				"users": []map[string]any{{
					"userid":       12345,
					"name":         "Alice",
					"editcount":    4021,
					"registration": "2019-03-01T10:00:00Z",
					"groups":       []string{"autoconfirmed"},
				}},
			},
		},
		"usercontribs": map[string]any{
			"query": map[string]any{
				"usercontribs": []map[string]any{
					{"revid": 1, "parentid": 0, "ns": 0, "title": "Brand New Article", "timestamp": recent, "sizediff": 2400, "comment": "created"},
					{"revid": 2, "parentid": 10, "ns": 0, "title": "Existing Article", "timestamp": recent, "sizediff": 1500, "comment": "expanded"},
					{"revid": 3, "parentid": 11, "ns": 1, "title": "Talk:Existing Article", "timestamp": older, "sizediff": 80, "comment": "reply"},
					{"revid": 4, "parentid": 12, "ns": 0, "title": "Existing Article", "timestamp": older, "sizediff": -40, "comment": "typo", "minor": true},
				},
			},
		},
	})

	statsMock.SetJSONResponse("/user/simple_editcount/en.wikipedia.org/Alice", stats.EditCountDTO{
		Username:       "Alice",
		UserID:         12345,
		LiveEditCount:  4000,
		TotalEditCount: 4021,
	})

	wikiCfg := wiki.DefaultConfig(wikiMock.URL(), "https://wiki.example.org/wiki/")
	wikiCfg.MinRequestInterval = 0
	wikiCfg.MaxRetries = 1
	statsCfg := stats.DefaultConfig(statsMock.URL(), "en.wikipedia.org")
	statsCfg.MinRequestInterval = 0
	statsCfg.MaxRetries = 1

	cfg := DefaultConfig(wikiCfg, statsCfg)
	registry, err := NewRegistry(cfg)
	require.NoError(t, err)

	return &fixtures{registry: registry, wiki: wikiMock, stats: statsMock, config: cfg}
}

func TestUserRepository_GetUser(t *testing.T) {
	f := newFixtures(t)
	users := f.registry.Users()

	user, err := users.GetUser(context.Background(), "Alice")
	require.NoError(t, err)

	assert.Equal(t, "Alice", user.Username)
	assert.Equal(t, int64(12345), user.UserID)
	assert.Equal(t, 4021, user.EditCount)
	assert.Equal(t, 2019, user.RegistrationDate.Year())

	// Second read comes from cache.
	before := f.wiki.GetRequestCount()
	_, err = users.GetUser(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, before, f.wiki.GetRequestCount(), "cache hit must not touch the upstream")
}

func TestContributionRepository_MapsAndClassifies(t *testing.T) {
	f := newFixtures(t)

	contributions, err := f.registry.Contributions().GetRecentContributions(context.Background(), "Alice", 10)
	require.NoError(t, err)
	require.Len(t, contributions, 4)

	assert.Equal(t, domain.TypeNewArticle, contributions[0].Type)
	assert.Equal(t, domain.TypeMajorExpansion, contributions[1].Type)
	assert.Equal(t, domain.TypeTalkPage, contributions[2].Type)
	assert.Equal(t, domain.TypeMinorEdit, contributions[3].Type)

	assert.Equal(t, "https://wiki.example.org/wiki/Brand_New_Article", contributions[0].ArticleURL)
	assert.True(t, contributions[3].IsMinor)
	assert.False(t, contributions[0].Timestamp.IsZero())
}

func TestStatsRepository_DerivesStats(t *testing.T) {
	f := newFixtures(t)

	editorStats, err := f.registry.Stats().GetEditorStats(context.Background(), "Alice")
	require.NoError(t, err)

	assert.Equal(t, 4021, editorStats.TotalEdits, "total comes from the statistics API")
	assert.Equal(t, 1, editorStats.ArticlesCreated)
	assert.Equal(t, 1, editorStats.MajorExpansions)
	assert.Equal(t, 1, editorStats.MinorEdits)
	assert.Equal(t, 1, editorStats.TalkPagePosts)

	// Two distinct UTC days of activity within the lookback.
	require.Len(t, editorStats.RecentActivity, 2)
	day := editorStats.RecentActivity[1]
	assert.Equal(t, 2, day.EditCount)
	// 2400 + 1500; the negative diff on the older day adds nothing there.
	assert.Equal(t, 3900, day.BytesAdded)
}

func TestDashboardRepository_Assembles(t *testing.T) {
	f := newFixtures(t)
	dashboards := f.registry.Dashboards()

	dashboard, err := dashboards.GetDashboard(context.Background(), "Alice")
	require.NoError(t, err)

	assert.Equal(t, "Alice", dashboard.User.Username)
	assert.Equal(t, 4021, dashboard.Stats.TotalEdits)
	assert.Len(t, dashboard.RecentContributions, 4)
	assert.NotNil(t, dashboard.Drafts)
	assert.NotNil(t, dashboard.Tasks)
	assert.NotNil(t, dashboard.FocusAreas)
	assert.Empty(t, dashboard.Drafts, "drafts are collaborator-owned, carried empty")
	assert.False(t, dashboard.GeneratedAt.IsZero())
}

func TestDashboardRepository_CacheHitSkipsUpstream(t *testing.T) {
	f := newFixtures(t)
	dashboards := f.registry.Dashboards()

	_, err := dashboards.GetDashboard(context.Background(), "Alice")
	require.NoError(t, err)

	wikiBefore := f.wiki.GetRequestCount()
	statsBefore := f.stats.GetRequestCount()

	_, err = dashboards.GetDashboard(context.Background(), "Alice")
	require.NoError(t, err)

	assert.Equal(t, wikiBefore, f.wiki.GetRequestCount())
	assert.Equal(t, statsBefore, f.stats.GetRequestCount())
}

func TestDashboardRepository_FailFastNoPartialCache(t *testing.T) {
	f := newFixtures(t)
	dashboards := f.registry.Dashboards()

	// The statistics sub-fetch fails while user and contributions succeed.
	f.stats.SetResponse("/user/simple_editcount/en.wikipedia.org/Alice", testutil.NewServerErrorResponse())

	_, err := dashboards.RefreshDashboard(context.Background(), "Alice")
	require.Error(t, err, "any failed sub-fetch must fail the whole aggregate")

	// Nothing partial was cached or remembered.
	_, ok := dashboards.LastKnown("Alice")
	assert.False(t, ok, "no partial dashboard may be retained")

	// Fixing the upstream makes the next refresh succeed.
	f.stats.SetJSONResponse("/user/simple_editcount/en.wikipedia.org/Alice", stats.EditCountDTO{TotalEditCount: 4021})
	_, err = dashboards.RefreshDashboard(context.Background(), "Alice")
	require.NoError(t, err)
}

func TestDashboardRepository_LastKnownServedStale(t *testing.T) {
	f := newFixtures(t)
	dashboards := f.registry.Dashboards()

	fresh, err := dashboards.RefreshDashboard(context.Background(), "Alice")
	require.NoError(t, err)

	// Upstream breaks after a successful build. The stats repository
	// cache is dropped too, so the refresh has to go back to the broken
	// upstream instead of serving the earlier stats entry.
	f.stats.SetResponse("/user/simple_editcount/en.wikipedia.org/Alice", testutil.NewServerErrorResponse())
	dashboards.Invalidate("Alice")
	f.registry.Stats().Invalidate("Alice")

	_, err = dashboards.RefreshDashboard(context.Background(), "Alice")
	require.Error(t, err)

	stale, ok := dashboards.LastKnown("Alice")
	require.True(t, ok, "last successful dashboard must stay available")
	assert.Equal(t, fresh.GeneratedAt, stale.GeneratedAt)
}

func TestUserRepository_NotFoundPropagates(t *testing.T) {
	f := newFixtures(t)

	f.wiki.SetQueryHandler(map[string]any{
		"users": map[string]any{
			"query": map[string]any{
				"users": []map[string]any{{"name": "Ghost", "missing": true}},
			},
		},
	})

	_, err := f.registry.Users().GetUser(context.Background(), "Ghost")
	require.Error(t, err)
	assert.True(t, wiki.IsNotFound(err), "absence must surface as a not-found condition")
}
