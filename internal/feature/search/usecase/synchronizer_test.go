package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/internal/feature/posts/domain/entity"
	"microblog/internal/feature/search/domain"
)

// mockIndex is a mock implementation of KeywordIndex.
type mockIndex struct {
	AddFunc    func(ctx context.Context, index string, id uint, fields map[string]string) error
	RemoveFunc func(ctx context.Context, index string, id uint) error
	QueryFunc  func(ctx context.Context, index, expr string, page, perPage int) ([]uint, int64, error)
	ResetFunc  func(ctx context.Context, index string) error
}

func (m *mockIndex) Add(ctx context.Context, index string, id uint, fields map[string]string) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, index, id, fields)
	}
	return nil
}

func (m *mockIndex) Remove(ctx context.Context, index string, id uint) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, index, id)
	}
	return nil
}

func (m *mockIndex) Query(ctx context.Context, index, expr string, page, perPage int) ([]uint, int64, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, index, expr, page, perPage)
	}
	return nil, 0, nil
}

func (m *mockIndex) Reset(ctx context.Context, index string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, index)
	}
	return nil
}

// mockLoader is a mock implementation of PostLoader.
type mockLoader struct {
	FindByIDsFunc   func(ctx context.Context, ids []uint) ([]entity.Post, error)
	ScanBatchesFunc func(ctx context.Context, batchSize int, fn func([]entity.Post) error) error
}

func (m *mockLoader) FindByIDs(ctx context.Context, ids []uint) ([]entity.Post, error) {
	if m.FindByIDsFunc != nil {
		return m.FindByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *mockLoader) ScanBatches(ctx context.Context, batchSize int, fn func([]entity.Post) error) error {
	if m.ScanBatchesFunc != nil {
		return m.ScanBatchesFunc(ctx, batchSize, fn)
	}
	return nil
}

// mockQueue records enqueued intents or fails with Err.
type mockQueue struct {
	Err     error
	Intents []domain.Intent
}

func (m *mockQueue) Enqueue(_ context.Context, in domain.Intent) error {
	if m.Err != nil {
		return m.Err
	}
	m.Intents = append(m.Intents, in)
	return nil
}

// recordingMetrics counts calls by label.
type recordingMetrics struct {
	mu        sync.Mutex
	enqueued  map[string]int
	dropped   map[string]int
	applied   map[string]int
	failures  map[string]int
	searches  int
	reindexed int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		enqueued: map[string]int{},
		dropped:  map[string]int{},
		applied:  map[string]int{},
		failures: map[string]int{},
	}
}

func (r *recordingMetrics) RecordIntentEnqueued(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueued[op]++
}

func (r *recordingMetrics) RecordIntentDropped(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped[reason]++
}

func (r *recordingMetrics) RecordIndexApplied(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied[op]++
}

func (r *recordingMetrics) RecordIndexFailure(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op]++
}

func (r *recordingMetrics) RecordSearchLatency(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches++
}

func (r *recordingMetrics) RecordReindexed(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reindexed += count
}

// countingThrottle counts Wait calls and fails once Limit is reached.
type countingThrottle struct {
	Calls int
	Limit int
}

func (c *countingThrottle) Wait(context.Context) error {
	c.Calls++
	if c.Limit > 0 && c.Calls > c.Limit {
		return context.DeadlineExceeded
	}
	return nil
}

func TestNewSynchronizer_DefaultBatchSize(t *testing.T) {
	s := NewSynchronizer(&mockIndex{}, &mockLoader{}, newRecordingMetrics(), nil, 0)
	assert.Equal(t, DefaultBatchSize, s.batchSize)

	s = NewSynchronizer(&mockIndex{}, &mockLoader{}, newRecordingMetrics(), nil, 7)
	assert.Equal(t, 7, s.batchSize)
}

func TestSynchronizer_AfterCommit(t *testing.T) {
	t.Run("enqueues intents in changeset order", func(t *testing.T) {
		m := newRecordingMetrics()
		q := &mockQueue{}
		s := NewSynchronizer(&mockIndex{}, &mockLoader{}, m, nil, 0)
		s.UseQueue(q)

		cs := domain.NewChangeset()
		cs.Add(entity.Post{ID: 1, Body: "first"})
		cs.Remove(entity.Post{ID: 2, Body: "gone"})

		s.AfterCommit(context.Background(), cs)

		require.Len(t, q.Intents, 2)
		assert.Equal(t, domain.Intent{Op: domain.OpUpsert, Index: "posts", ID: 1, Fields: map[string]string{"body": "first"}}, q.Intents[0])
		assert.Equal(t, domain.OpRemove, q.Intents[1].Op)
		assert.Equal(t, uint(2), q.Intents[1].ID)
		assert.Equal(t, 1, m.enqueued["upsert"])
		assert.Equal(t, 1, m.enqueued["remove"])
	})

	t.Run("empty changeset enqueues nothing", func(t *testing.T) {
		q := &mockQueue{}
		s := NewSynchronizer(&mockIndex{}, &mockLoader{}, newRecordingMetrics(), nil, 0)
		s.UseQueue(q)

		s.AfterCommit(context.Background(), domain.NewChangeset())
		s.AfterCommit(context.Background(), nil)

		assert.Empty(t, q.Intents)
	})

	tests := []struct {
		name       string
		queue      IntentQueue
		wantReason string
	}{
		{"full queue", &mockQueue{Err: ErrQueueFull}, "queue_full"},
		{"closed queue", &mockQueue{Err: ErrQueueClosed}, "queue_closed"},
		{"broker error", &mockQueue{Err: errors.New("nats: connection closed")}, "enqueue_error"},
		{"no queue", nil, "no_queue"},
	}
	for _, tt := range tests {
		t.Run("drops on "+tt.name, func(t *testing.T) {
			m := newRecordingMetrics()
			s := NewSynchronizer(&mockIndex{}, &mockLoader{}, m, nil, 0)
			if tt.queue != nil {
				s.UseQueue(tt.queue)
			}

			cs := domain.NewChangeset()
			cs.Add(entity.Post{ID: 1, Body: "x"})

			assert.NotPanics(t, func() { s.AfterCommit(context.Background(), cs) })
			assert.Equal(t, 1, m.dropped[tt.wantReason])
			assert.Empty(t, m.enqueued)
		})
	}
}

func TestSynchronizer_Apply(t *testing.T) {
	indexErr := errors.New("redis down")

	tests := []struct {
		name        string
		intent      domain.Intent
		addErr      error
		removeErr   error
		wantAdds    int
		wantRemoves int
		wantErr     error
	}{
		{
			name:     "upsert adds document",
			intent:   domain.Intent{Op: domain.OpUpsert, Index: "posts", ID: 1, Fields: map[string]string{"body": "hi"}},
			wantAdds: 1,
		},
		{
			name:        "remove deletes document",
			intent:      domain.Intent{Op: domain.OpRemove, Index: "posts", ID: 1},
			wantRemoves: 1,
		},
		{
			name:     "index failure is returned",
			intent:   domain.Intent{Op: domain.OpUpsert, Index: "posts", ID: 1},
			addErr:   indexErr,
			wantAdds: 1,
			wantErr:  indexErr,
		},
		{
			name:        "remove failure is returned",
			intent:      domain.Intent{Op: domain.OpRemove, Index: "posts", ID: 1},
			removeErr:   indexErr,
			wantRemoves: 1,
			wantErr:     indexErr,
		},
		{
			name:    "unknown op",
			intent:  domain.Intent{Op: "rename", Index: "posts", ID: 1},
			wantErr: ErrUnknownOp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var adds, removes int
			idx := &mockIndex{
				AddFunc: func(_ context.Context, index string, id uint, fields map[string]string) error {
					adds++
					assert.Equal(t, tt.intent.Index, index)
					assert.Equal(t, tt.intent.ID, id)
					assert.Equal(t, tt.intent.Fields, fields)
					return tt.addErr
				},
				RemoveFunc: func(_ context.Context, index string, id uint) error {
					removes++
					return tt.removeErr
				},
			}
			m := newRecordingMetrics()
			s := NewSynchronizer(idx, &mockLoader{}, m, nil, 0)

			err := s.Apply(context.Background(), tt.intent)

			assert.Equal(t, tt.wantAdds, adds)
			assert.Equal(t, tt.wantRemoves, removes)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 1, m.failures[string(tt.intent.Op)])
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 1, m.applied[string(tt.intent.Op)])
		})
	}
}

func TestSynchronizer_Search(t *testing.T) {
	t.Run("returns posts in ranking order", func(t *testing.T) {
		idx := &mockIndex{
			QueryFunc: func(_ context.Context, index, expr string, page, perPage int) ([]uint, int64, error) {
				assert.Equal(t, "posts", index)
				assert.Equal(t, "golang", expr)
				assert.Equal(t, 2, page)
				assert.Equal(t, 5, perPage)
				return []uint{3, 1, 2}, 12, nil
			},
		}
		loader := &mockLoader{
			FindByIDsFunc: func(_ context.Context, ids []uint) ([]entity.Post, error) {
				assert.Equal(t, []uint{3, 1, 2}, ids)
				// Ledger order differs from ranking order.
				return []entity.Post{{ID: 1}, {ID: 2}, {ID: 3}}, nil
			},
		}
		m := newRecordingMetrics()
		s := NewSynchronizer(idx, loader, m, nil, 0)

		posts, total, err := s.Search(context.Background(), "  golang ", 2, 5)

		require.NoError(t, err)
		assert.Equal(t, int64(12), total)
		require.Len(t, posts, 3)
		assert.Equal(t, uint(3), posts[0].ID)
		assert.Equal(t, uint(1), posts[1].ID)
		assert.Equal(t, uint(2), posts[2].ID)
		assert.Equal(t, 1, m.searches)
	})

	t.Run("zero matches skips the ledger", func(t *testing.T) {
		idx := &mockIndex{
			QueryFunc: func(context.Context, string, string, int, int) ([]uint, int64, error) {
				return []uint{}, 0, nil
			},
		}
		loader := &mockLoader{
			FindByIDsFunc: func(context.Context, []uint) ([]entity.Post, error) {
				t.Fatal("ledger must not be queried")
				return nil, nil
			},
		}
		s := NewSynchronizer(idx, loader, newRecordingMetrics(), nil, 0)

		posts, total, err := s.Search(context.Background(), "nothing", 1, 10)

		require.NoError(t, err)
		assert.Zero(t, total)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	})

	t.Run("stale index entries are skipped", func(t *testing.T) {
		idx := &mockIndex{
			QueryFunc: func(context.Context, string, string, int, int) ([]uint, int64, error) {
				return []uint{5, 4}, 2, nil
			},
		}
		loader := &mockLoader{
			FindByIDsFunc: func(context.Context, []uint) ([]entity.Post, error) {
				return []entity.Post{{ID: 4}}, nil
			},
		}
		s := NewSynchronizer(idx, loader, newRecordingMetrics(), nil, 0)

		posts, _, err := s.Search(context.Background(), "x", 1, 10)

		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, uint(4), posts[0].ID)
	})

	t.Run("normalizes paging", func(t *testing.T) {
		var gotPage, gotPerPage int
		idx := &mockIndex{
			QueryFunc: func(_ context.Context, _, _ string, page, perPage int) ([]uint, int64, error) {
				gotPage, gotPerPage = page, perPage
				return nil, 0, nil
			},
		}
		s := NewSynchronizer(idx, &mockLoader{}, newRecordingMetrics(), nil, 0)

		_, _, err := s.Search(context.Background(), "x", 0, 1000)

		require.NoError(t, err)
		assert.Equal(t, 1, gotPage)
		assert.Equal(t, DefaultPerPage, gotPerPage)
	})

	t.Run("empty expression", func(t *testing.T) {
		s := NewSynchronizer(&mockIndex{}, &mockLoader{}, newRecordingMetrics(), nil, 0)

		_, _, err := s.Search(context.Background(), "   ", 1, 10)

		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("index failure is distinct from no match", func(t *testing.T) {
		idx := &mockIndex{
			QueryFunc: func(context.Context, string, string, int, int) ([]uint, int64, error) {
				return nil, 0, errors.New("dial tcp: connection refused")
			},
		}
		s := NewSynchronizer(idx, &mockLoader{}, newRecordingMetrics(), nil, 0)

		posts, total, err := s.Search(context.Background(), "x", 1, 10)

		assert.ErrorIs(t, err, ErrIndexUnavailable)
		assert.Nil(t, posts)
		assert.Zero(t, total)
	})

	t.Run("ledger failure", func(t *testing.T) {
		dbErr := errors.New("db down")
		idx := &mockIndex{
			QueryFunc: func(context.Context, string, string, int, int) ([]uint, int64, error) {
				return []uint{1}, 1, nil
			},
		}
		loader := &mockLoader{
			FindByIDsFunc: func(context.Context, []uint) ([]entity.Post, error) {
				return nil, dbErr
			},
		}
		s := NewSynchronizer(idx, loader, newRecordingMetrics(), nil, 0)

		_, _, err := s.Search(context.Background(), "x", 1, 10)

		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, ErrIndexUnavailable)
	})
}

// scanOver returns a ScanBatches func walking posts in chunks of batchSize.
func scanOver(posts []entity.Post) func(context.Context, int, func([]entity.Post) error) error {
	return func(_ context.Context, batchSize int, fn func([]entity.Post) error) error {
		for i := 0; i < len(posts); i += batchSize {
			end := min(i+batchSize, len(posts))
			if err := fn(posts[i:end]); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestNormalizePaging(t *testing.T) {
	tests := []struct {
		name        string
		page        int
		perPage     int
		wantPage    int
		wantPerPage int
	}{
		{"defaults", 0, 0, 1, DefaultPerPage},
		{"kept", 3, 20, 3, 20},
		{"oversized per page", 2, 1000, 2, DefaultPerPage},
		{"huge page is bounded", math.MaxInt/2 + 1, 15, math.MaxInt / 15, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, perPage := NormalizePaging(tt.page, tt.perPage)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPerPage, perPage)
		})
	}
}

func TestSynchronizer_Search_HugePage(t *testing.T) {
	idx := &mockIndex{
		QueryFunc: func(_ context.Context, _, _ string, page, perPage int) ([]uint, int64, error) {
			assert.Equal(t, math.MaxInt/perPage, page)
			return []uint{}, 3, nil
		},
	}
	s := NewSynchronizer(idx, &mockLoader{}, newRecordingMetrics(), nil, 0)

	posts, total, err := s.Search(context.Background(), "golang", math.MaxInt, 15)

	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, int64(3), total)
}

func TestSynchronizer_Reindex(t *testing.T) {
	ledger := []entity.Post{
		{ID: 1, Body: "one"},
		{ID: 2, Body: "two"},
		{ID: 3, Body: "three"},
		{ID: 4, Body: "four"},
		{ID: 5, Body: "five"},
	}

	t.Run("resets then indexes every post", func(t *testing.T) {
		var calls []string
		idx := &mockIndex{
			ResetFunc: func(_ context.Context, index string) error {
				calls = append(calls, "reset:"+index)
				return nil
			},
			AddFunc: func(_ context.Context, index string, id uint, fields map[string]string) error {
				calls = append(calls, "add:"+fields["body"])
				return nil
			},
		}
		m := newRecordingMetrics()
		throttle := &countingThrottle{}
		s := NewSynchronizer(idx, &mockLoader{ScanBatchesFunc: scanOver(ledger)}, m, throttle, 2)

		n, err := s.Reindex(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, []string{"reset:posts", "add:one", "add:two", "add:three", "add:four", "add:five"}, calls)
		assert.Equal(t, 5, m.reindexed)
		assert.Equal(t, 5, throttle.Calls)
	})

	t.Run("reset failure", func(t *testing.T) {
		idx := &mockIndex{
			ResetFunc: func(context.Context, string) error { return errors.New("down") },
		}
		s := NewSynchronizer(idx, &mockLoader{ScanBatchesFunc: scanOver(ledger)}, newRecordingMetrics(), nil, 2)

		n, err := s.Reindex(context.Background())

		assert.ErrorIs(t, err, ErrIndexUnavailable)
		assert.Zero(t, n)
	})

	t.Run("stops when the throttle gives up", func(t *testing.T) {
		s := NewSynchronizer(&mockIndex{}, &mockLoader{ScanBatchesFunc: scanOver(ledger)}, newRecordingMetrics(), &countingThrottle{Limit: 3}, 2)

		n, err := s.Reindex(context.Background())

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 3, n)
	})

	t.Run("add failure aborts", func(t *testing.T) {
		idx := &mockIndex{
			AddFunc: func(_ context.Context, _ string, id uint, _ map[string]string) error {
				if id == 2 {
					return errors.New("oom")
				}
				return nil
			},
		}
		s := NewSynchronizer(idx, &mockLoader{ScanBatchesFunc: scanOver(ledger)}, newRecordingMetrics(), nil, 2)

		n, err := s.Reindex(context.Background())

		assert.ErrorIs(t, err, ErrIndexUnavailable)
		assert.Equal(t, 1, n)
	})

	t.Run("rejects concurrent rebuilds", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		loader := &mockLoader{
			ScanBatchesFunc: func(context.Context, int, func([]entity.Post) error) error {
				once.Do(func() { close(started) })
				<-release
				return nil
			},
		}
		s := NewSynchronizer(&mockIndex{}, loader, newRecordingMetrics(), nil, 2)

		done := make(chan error, 1)
		go func() {
			_, err := s.Reindex(context.Background())
			done <- err
		}()
		<-started

		_, err := s.Reindex(context.Background())
		assert.ErrorIs(t, err, ErrReindexRunning)

		close(release)
		assert.NoError(t, <-done)

		// A finished rebuild frees the slot.
		_, err = s.Reindex(context.Background())
		assert.NoError(t, err)
	})
}

// ctxThrottle fails as soon as its context is done.
type ctxThrottle struct{}

func (ctxThrottle) Wait(ctx context.Context) error { return ctx.Err() }

func TestSynchronizer_StartReindex(t *testing.T) {
	ledger := []entity.Post{{ID: 1, Body: "one"}, {ID: 2, Body: "two"}, {ID: 3, Body: "three"}}

	t.Run("rebuild outlives a cancelled caller", func(t *testing.T) {
		var mu sync.Mutex
		added := map[uint]bool{}
		done := make(chan struct{})
		idx := &mockIndex{
			AddFunc: func(_ context.Context, _ string, id uint, _ map[string]string) error {
				mu.Lock()
				defer mu.Unlock()
				added[id] = true
				return nil
			},
		}
		loader := &mockLoader{
			ScanBatchesFunc: func(ctx context.Context, batchSize int, fn func([]entity.Post) error) error {
				defer close(done)
				return scanOver(ledger)(ctx, batchSize, fn)
			},
		}
		s := NewSynchronizer(idx, loader, newRecordingMetrics(), ctxThrottle{}, 2)

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, s.StartReindex(ctx))
		cancel()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("rebuild did not finish")
		}
		mu.Lock()
		defer mu.Unlock()
		assert.Len(t, added, len(ledger))
	})

	t.Run("rejects a second rebuild while one runs", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		loader := &mockLoader{
			ScanBatchesFunc: func(context.Context, int, func([]entity.Post) error) error {
				close(started)
				<-release
				return nil
			},
		}
		s := NewSynchronizer(&mockIndex{}, loader, newRecordingMetrics(), nil, 2)

		require.NoError(t, s.StartReindex(context.Background()))
		<-started

		assert.ErrorIs(t, s.StartReindex(context.Background()), ErrReindexRunning)
		_, err := s.Reindex(context.Background())
		assert.ErrorIs(t, err, ErrReindexRunning)

		close(release)
	})
}
