// Package repository applies caching on top of the transport clients,
// maps DTOs to domain entities and assembles the dashboard aggregate.
package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wikidash/wikidash/pkg/cache"
	"github.com/wikidash/wikidash/pkg/domain"
	"github.com/wikidash/wikidash/pkg/logging"
	"github.com/wikidash/wikidash/pkg/wiki"
)

// UserRepository reads editor accounts through a TTL cache.
type UserRepository struct {
	wiki   *wiki.Client
	cache  *cache.TTLCache[domain.WikiUser]
	logger zerolog.Logger
}

// NewUserRepository creates a user repository owning its own cache.
func NewUserRepository(wikiClient *wiki.Client, ttl time.Duration) *UserRepository {
	return &UserRepository{
		wiki:   wikiClient,
		cache:  cache.New[domain.WikiUser]("users", ttl),
		logger: logging.NewLogger("user-repository"),
	}
}

// GetUser returns the editor account, from cache when fresh.
func (r *UserRepository) GetUser(ctx context.Context, username string) (domain.WikiUser, error) {
	if user, ok := r.cache.Get(username); ok {
		return user, nil
	}

	dto, err := r.wiki.GetUser(ctx, username)
	if err != nil {
		return domain.WikiUser{}, err
	}

	user := mapUser(dto)
	r.cache.Set(username, user)

	r.logger.Debug().
		Str("username", username).
		Int("edit_count", user.EditCount).
		Msg("User fetched and cached")

	return user, nil
}

// Invalidate drops one user from the cache.
func (r *UserRepository) Invalidate(username string) {
	r.cache.Invalidate(username)
}

func mapUser(dto *wiki.UserDTO) domain.WikiUser {
	user := domain.WikiUser{
		Username:  dto.Name,
		UserID:    dto.UserID,
		EditCount: dto.EditCount,
		Groups:    dto.Groups,
	}
	if dto.Registration != "" {
		if ts, err := time.Parse(time.RFC3339, dto.Registration); err == nil {
			user.RegistrationDate = ts
		}
	}
	if user.Groups == nil {
		user.Groups = []string{}
	}
	return user
}
