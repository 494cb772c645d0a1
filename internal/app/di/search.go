package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	searchadapters "microblog/internal/feature/search/adapters"
	"microblog/internal/feature/search/usecase"
	"microblog/internal/platform/config"
	"microblog/internal/platform/messaging"
	"microblog/internal/platform/searchindex"
)

// errSearchDisabled is reported by the index when Redis is not configured.
var errSearchDisabled = errors.New("search index is not configured")

// disabledIndex answers every call with errSearchDisabled, which the synchronizer
// surfaces as usecase.ErrIndexUnavailable.
type disabledIndex struct{}

func (disabledIndex) Add(context.Context, string, uint, map[string]string) error { return errSearchDisabled }
func (disabledIndex) Remove(context.Context, string, uint) error { return errSearchDisabled }
func (disabledIndex) Reset(context.Context, string) error { return errSearchDisabled }
func (disabledIndex) Query(context.Context, string, string, int, int) ([]uint, int64, error) {
	return nil, 0, errSearchDisabled
}

// NewKeywordIndex returns the Redis-backed index, or an index that always reports
// itself unavailable when Redis is not configured.
func NewKeywordIndex(rdb *redis.Client, namespace string) usecase.KeywordIndex {
	if rdb == nil {
		slog.Warn("Redis unavailable; search is disabled")
		return disabledIndex{}
	}
	return searchindex.NewRedisIndex(rdb, namespace)
}

// StartIntentQueue attaches a queue to syncer and starts whatever consumes it.
// With a NATS connection, intents are published on cfg.NATSSubject and this process also
// subscribes to apply them. Otherwise an in-process worker pool is used.
// The returned function stops consumption and, for the worker pool, drains it.
func StartIntentQueue(ctx context.Context, cfg *config.Config, nc *nats.Conn, syncer *usecase.Synchronizer) (func(), error) {
	if nc != nil {
		q := messaging.NewNATSQueue(nc, cfg.NATSSubject)
		sub, err := q.Subscribe(ctx, syncer)
		if err != nil {
			return nil, err
		}
		syncer.UseQueue(q)
		return func() {
			if err := sub.Drain(); err != nil {
				slog.Warn("failed to drain intent subscription", "error", err)
			}
		}, nil
	}

	q := searchadapters.NewAsyncQueue(syncer, cfg.IndexWorkers, cfg.IndexQueueSize)
	q.Start(ctx)
	syncer.UseQueue(q)
	return q.Close, nil
}
