// Package adapters provides IntentQueue implementations for the search synchronizer.
package adapters

import (
	"context"
	"log/slog"
	"sync"

	"microblog/internal/feature/search/domain"
	"microblog/internal/feature/search/usecase"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 1024
)

// Applier performs an intent against the index.
type Applier interface {
	Apply(ctx context.Context, intent domain.Intent) error
}

// AsyncQueue is an in-process IntentQueue drained by a fixed pool of worker goroutines.
// Enqueue never blocks: when the buffer is full the intent is rejected with usecase.ErrQueueFull.
type AsyncQueue struct {
	applier Applier
	workers int
	ch      chan domain.Intent

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ usecase.IntentQueue = (*AsyncQueue)(nil)

// NewAsyncQueue creates a queue with the given number of workers and buffer size.
// Non-positive values fall back to 2 workers and 1024 slots.
func NewAsyncQueue(applier Applier, workers, size int) *AsyncQueue {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if size <= 0 {
		size = defaultQueueSize
	}
	return &AsyncQueue{
		applier: applier,
		workers: workers,
		ch:      make(chan domain.Intent, size),
	}
}

// Start launches the workers. They stop when ctx is cancelled or after Close drains the buffer.
func (q *AsyncQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
	slog.Info("index workers started", "workers", q.workers, "buffer", cap(q.ch))
}

func (q *AsyncQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-q.ch:
			if !ok {
				return
			}
			// Apply logs and counts its own failures.
			_ = q.applier.Apply(ctx, in)
		}
	}
}

// Enqueue schedules an intent without waiting.
func (q *AsyncQueue) Enqueue(_ context.Context, in domain.Intent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return usecase.ErrQueueClosed
	}
	select {
	case q.ch <- in:
		return nil
	default:
		return usecase.ErrQueueFull
	}
}

// Len returns the number of intents waiting for a worker.
func (q *AsyncQueue) Len() int {
	return len(q.ch)
}

// Close stops accepting intents and waits for the workers to drain what is buffered.
// It is safe to call more than once.
func (q *AsyncQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
