package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wikidash/wikidash/pkg/cache"
	"github.com/wikidash/wikidash/pkg/domain"
	"github.com/wikidash/wikidash/pkg/logging"
	"github.com/wikidash/wikidash/pkg/wiki"
)

// ContributionRepository reads classified contributions through a TTL cache.
type ContributionRepository struct {
	wiki   *wiki.Client
	cache  *cache.TTLCache[[]domain.Contribution]
	logger zerolog.Logger
}

// NewContributionRepository creates a contribution repository owning its
// own cache.
func NewContributionRepository(wikiClient *wiki.Client, ttl time.Duration) *ContributionRepository {
	return &ContributionRepository{
		wiki:   wikiClient,
		cache:  cache.New[[]domain.Contribution]("contributions", ttl),
		logger: logging.NewLogger("contribution-repository"),
	}
}

// GetRecentContributions returns up to limit classified contributions for
// a user, newest first as the query API delivers them.
func (r *ContributionRepository) GetRecentContributions(ctx context.Context, username string, limit int) ([]domain.Contribution, error) {
	key := fmt.Sprintf("%s:%d", username, limit)
	if contributions, ok := r.cache.Get(key); ok {
		return contributions, nil
	}

	dtos, err := r.wiki.GetUserContributions(ctx, username, limit)
	if err != nil {
		return nil, err
	}

	contributions := make([]domain.Contribution, 0, len(dtos))
	for _, dto := range dtos {
		contributions = append(contributions, r.mapContribution(dto))
	}

	r.cache.Set(key, contributions)

	r.logger.Debug().
		Str("username", username).
		Int("count", len(contributions)).
		Msg("Contributions fetched and cached")

	return contributions, nil
}

// Invalidate drops one user's cached contribution pages.
func (r *ContributionRepository) Invalidate(username string, limit int) {
	r.cache.Invalidate(fmt.Sprintf("%s:%d", username, limit))
}

func (r *ContributionRepository) mapContribution(dto wiki.ContributionDTO) domain.Contribution {
	contribution := domain.Contribution{
		RevisionID:   dto.RevID,
		ArticleTitle: dto.Title,
		ArticleURL:   r.wiki.ArticleURL(dto.Title),
		Type:         domain.ClassifyContribution(dto.NS, dto.Tags, dto.ParentID, dto.SizeDiff),
		ByteDiff:     dto.SizeDiff,
		Summary:      dto.Comment,
		IsMinor:      dto.Minor,
		Tags:         dto.Tags,
	}
	if ts, err := time.Parse(time.RFC3339, dto.Timestamp); err == nil {
		contribution.Timestamp = ts
	}
	if contribution.Tags == nil {
		contribution.Tags = []string{}
	}
	return contribution
}
