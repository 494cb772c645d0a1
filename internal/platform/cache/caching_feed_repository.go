// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"microblog/internal/feature/posts/domain/entity"
	"microblog/internal/feature/posts/usecase"
	searchdomain "microblog/internal/feature/search/domain"
)

// window is the cached form of one FindAll result.
type window struct {
	Items []entity.Post `json:"items"`
	Total int64         `json:"total"`
}

// CachingFeedRepository decorates a FeedRepository with Redis caching of the explore timeline.
// The personalised timelines pass straight through; only FindAll is shared by every viewer.
type CachingFeedRepository struct {
	inner     usecase.FeedRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var (
	_ usecase.FeedRepository  = (*CachingFeedRepository)(nil)
	_ usecase.AfterCommitHook = (*CachingFeedRepository)(nil)
)

// NewCachingFeedRepository decorates a FeedRepository with Redis caching.
// If ttl is 0, it defaults to 1 minute. If namespace is empty, it uses "explore".
// A nil rdb disables caching.
func NewCachingFeedRepository(rdb *redis.Client, ttl time.Duration, inner usecase.FeedRepository, namespace string) *CachingFeedRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if namespace == "" {
		namespace = "explore"
	}
	return &CachingFeedRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// FindFollowed is not cached.
func (c *CachingFeedRepository) FindFollowed(ctx context.Context, viewerID uint, offset, limit int) ([]entity.Post, int64, error) {
	return c.inner.FindFollowed(ctx, viewerID, offset, limit)
}

// FindByAuthor is not cached.
func (c *CachingFeedRepository) FindByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]entity.Post, int64, error) {
	return c.inner.FindByAuthor(ctx, authorID, offset, limit)
}

// FindAll returns one window of the global timeline, checking the cache first.
func (c *CachingFeedRepository) FindAll(ctx context.Context, offset, limit int) ([]entity.Post, int64, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.FindAll(ctx, offset, limit)
	}

	key := c.cacheKey(offset, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var w window
		if err := json.Unmarshal(b, &w); err == nil {
			return w.Items, w.Total, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	items, total, err := c.inner.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(window{Items: items, Total: total}); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return items, total, nil
}

// AfterCommit drops every cached window once a post is added or removed.
func (c *CachingFeedRepository) AfterCommit(ctx context.Context, cs *searchdomain.Changeset) {
	if c.rdb == nil || cs.Len() == 0 {
		return
	}
	if err := c.deleteByPattern(ctx, c.keyPrefix()+"*"); err != nil {
		slog.Warn("failed to invalidate explore cache", "error", err)
	}
}

// cacheKey generates a cache key for one window.
func (c *CachingFeedRepository) cacheKey(offset, limit int) string {
	return fmt.Sprintf("%s%d:%d", c.keyPrefix(), offset, limit)
}

func (c *CachingFeedRepository) keyPrefix() string {
	return c.namespace + ":all:"
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingFeedRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
