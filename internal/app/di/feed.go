// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"microblog/internal/feature/posts/usecase"
	"microblog/internal/platform/cache"
)

// exploreCacheTTL bounds how stale a cached explore page may get if an invalidation is lost.
const exploreCacheTTL = time.Minute

// NewFeedRepository returns the read side of the ledger for the feed usecase.
// If Redis is available, the explore timeline is cached there and the returned hook
// invalidates it after every committed post change. Otherwise it falls back to the
// database alone and the hook is nil.
func NewFeedRepository(rdb *redis.Client, repo usecase.FeedRepository) (usecase.FeedRepository, usecase.AfterCommitHook) {
	if rdb == nil {
		return repo, nil
	}
	cached := cache.NewCachingFeedRepository(rdb, exploreCacheTTL, repo, "explore")
	return cached, cached
}
