package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"microblog/internal/feature/posts/domain/entity"
	postusecase "microblog/internal/feature/posts/usecase"
	"microblog/internal/feature/search/domain"
)

const (
	// DefaultBatchSize is the number of posts read per ledger scan during a rebuild.
	DefaultBatchSize = 500
	// DefaultPerPage is the search page size when the caller passes none.
	DefaultPerPage = 15
	// ReindexTimeout bounds a rebuild started by StartReindex.
	ReindexTimeout = 30 * time.Minute
)

// KeywordIndex stores documents and answers ranked keyword queries.
type KeywordIndex interface {
	Add(ctx context.Context, index string, id uint, fields map[string]string) error
	Remove(ctx context.Context, index string, id uint) error
	// Query returns one page of matching IDs, best first, and the total number of matches.
	Query(ctx context.Context, index, expr string, page, perPage int) ([]uint, int64, error)
	// Reset deletes every document of index.
	Reset(ctx context.Context, index string) error
}

// IntentQueue hands intents to whatever applies them. Enqueue must not block.
type IntentQueue interface {
	Enqueue(ctx context.Context, intent domain.Intent) error
}

// PostLoader reads posts back from the ledger.
type PostLoader interface {
	FindByIDs(ctx context.Context, ids []uint) ([]entity.Post, error)
	ScanBatches(ctx context.Context, batchSize int, fn func([]entity.Post) error) error
}

// Throttle paces bulk work.
type Throttle interface {
	Wait(ctx context.Context) error
}

// MetricsRecorder receives search and indexing measurements.
type MetricsRecorder interface {
	RecordIntentEnqueued(op string)
	RecordIntentDropped(reason string)
	RecordIndexApplied(op string)
	RecordIndexFailure(op string)
	RecordSearchLatency(d time.Duration)
	RecordReindexed(count int)
}

// Synchronizer keeps the keyword index in step with the post ledger.
// It never makes a ledger write fail: index work happens after commit and errors are only
// logged and counted. Reindex restores convergence after dropped intents.
type Synchronizer struct {
	index     KeywordIndex
	posts     PostLoader
	queue     IntentQueue
	metrics   MetricsRecorder
	throttle  Throttle
	batchSize int
	running   atomic.Bool
}

var _ postusecase.AfterCommitHook = (*Synchronizer)(nil)

// NewSynchronizer creates a Synchronizer. Intents are dropped until a queue is attached
// with UseQueue. A non-positive batchSize means DefaultBatchSize.
func NewSynchronizer(index KeywordIndex, posts PostLoader, metrics MetricsRecorder, throttle Throttle, batchSize int) *Synchronizer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Synchronizer{
		index:     index,
		posts:     posts,
		metrics:   metrics,
		throttle:  throttle,
		batchSize: batchSize,
	}
}

// UseQueue attaches the queue AfterCommit publishes to.
// Queues usually need the Synchronizer as their applier, hence the two-step setup.
func (s *Synchronizer) UseQueue(q IntentQueue) {
	s.queue = q
}

// AfterCommit turns a committed changeset into intents and enqueues them.
func (s *Synchronizer) AfterCommit(ctx context.Context, cs *domain.Changeset) {
	for _, in := range cs.Intents() {
		if s.queue == nil {
			s.metrics.RecordIntentDropped("no_queue")
			slog.Warn("index intent dropped", "reason", "no queue", "index", in.Index, "id", in.ID, "op", in.Op)
			continue
		}
		if err := s.queue.Enqueue(ctx, in); err != nil {
			reason := "enqueue_error"
			switch {
			case errors.Is(err, ErrQueueFull):
				reason = "queue_full"
			case errors.Is(err, ErrQueueClosed):
				reason = "queue_closed"
			}
			s.metrics.RecordIntentDropped(reason)
			slog.Warn("index intent dropped", "reason", reason, "index", in.Index, "id", in.ID, "op", in.Op, "error", err)
			continue
		}
		s.metrics.RecordIntentEnqueued(string(in.Op))
	}
}

// Apply performs one intent against the index. Failures are logged and counted, not retried.
func (s *Synchronizer) Apply(ctx context.Context, in domain.Intent) error {
	var err error
	switch in.Op {
	case domain.OpUpsert:
		err = s.index.Add(ctx, in.Index, in.ID, in.Fields)
	case domain.OpRemove:
		err = s.index.Remove(ctx, in.Index, in.ID)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownOp, in.Op)
	}
	if err != nil {
		s.metrics.RecordIndexFailure(string(in.Op))
		slog.Error("failed to apply index intent", "index", in.Index, "id", in.ID, "op", in.Op, "error", err)
		return err
	}
	s.metrics.RecordIndexApplied(string(in.Op))
	return nil
}

// Search runs expr against the post index and returns the matching posts in ranking order
// together with the total number of matches.
func (s *Synchronizer) Search(ctx context.Context, expr string, page, perPage int) ([]entity.Post, int64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, 0, ErrEmptyQuery
	}
	page, perPage = NormalizePaging(page, perPage)

	start := time.Now()
	ids, total, err := s.index.Query(ctx, entity.SearchIndexName, expr, page, perPage)
	s.metrics.RecordSearchLatency(time.Since(start))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if total == 0 || len(ids) == 0 {
		return []entity.Post{}, total, nil
	}

	rows, err := s.posts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load search results: %w", err)
	}

	byID := make(map[uint]entity.Post, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	// IDs the ledger no longer has are skipped; the index catches up on the next remove or rebuild.
	out := make([]entity.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, total, nil
}

// NormalizePaging replaces an out-of-range perPage with DefaultPerPage and bounds page
// with entity.ClampPage.
func NormalizePaging(page, perPage int) (int, int) {
	if perPage <= 0 || perPage > postusecase.MaxPerPage {
		perPage = DefaultPerPage
	}
	return entity.ClampPage(page, perPage), perPage
}

// Reindex rebuilds the post index from the ledger and returns the number of posts indexed.
// Only one rebuild runs at a time.
func (s *Synchronizer) Reindex(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, ErrReindexRunning
	}
	defer s.running.Store(false)
	return s.rebuild(ctx)
}

// StartReindex claims the rebuild slot and runs the rebuild in the background.
// The rebuild keeps ctx's values but not its cancellation and is bounded by ReindexTimeout.
func (s *Synchronizer) StartReindex(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrReindexRunning
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ReindexTimeout)
	go func() {
		defer s.running.Store(false)
		defer cancel()
		n, err := s.rebuild(rctx)
		if err != nil {
			slog.Error("background reindex failed", "indexed", n, "error", err)
			return
		}
		slog.Info("background reindex finished", "indexed", n)
	}()
	return nil
}

func (s *Synchronizer) rebuild(ctx context.Context) (int, error) {
	if err := s.index.Reset(ctx, entity.SearchIndexName); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	count := 0
	err := s.posts.ScanBatches(ctx, s.batchSize, func(batch []entity.Post) error {
		for _, p := range batch {
			if s.throttle != nil {
				if err := s.throttle.Wait(ctx); err != nil {
					return err
				}
			}
			if err := s.index.Add(ctx, p.SearchIndex(), p.SearchID(), p.SearchFields()); err != nil {
				return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
			}
			count++
		}
		s.metrics.RecordReindexed(len(batch))
		slog.Info("reindexed batch", "size", len(batch), "total", count)
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("reindex after %d posts: %w", count, err)
	}
	return count, nil
}
