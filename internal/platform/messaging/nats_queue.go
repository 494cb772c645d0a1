// Package messaging carries index intents over NATS so that indexing can run in another process.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"microblog/internal/feature/search/domain"
	"microblog/internal/feature/search/usecase"
)

const (
	// DefaultSubject is the subject intents are published on.
	DefaultSubject = "search.intents"
	// queueGroup makes several subscribers share the work instead of each applying every intent.
	queueGroup = "indexers"
)

// Applier performs an intent against the index.
type Applier interface {
	Apply(ctx context.Context, intent domain.Intent) error
}

// Connect opens a NATS connection that keeps reconnecting in the background.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("microblog"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Info("NATS connected successfully", "url", nc.ConnectedUrl())
	return nc, nil
}

// NATSQueue publishes intents on a NATS subject.
// Publish only writes to the client's buffer, so Enqueue does not wait for the broker.
type NATSQueue struct {
	nc      *nats.Conn
	subject string
}

var _ usecase.IntentQueue = (*NATSQueue)(nil)

// NewNATSQueue creates a queue publishing on subject. An empty subject means DefaultSubject.
func NewNATSQueue(nc *nats.Conn, subject string) *NATSQueue {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSQueue{nc: nc, subject: subject}
}

// Enqueue publishes one intent.
func (q *NATSQueue) Enqueue(_ context.Context, in domain.Intent) error {
	if q.nc.IsClosed() {
		return usecase.ErrQueueClosed
	}
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode intent: %w", err)
	}
	if err := q.nc.Publish(q.subject, b); err != nil {
		return fmt.Errorf("publish intent: %w", err)
	}
	return nil
}

// Subscribe applies every intent received on the queue's subject until ctx is cancelled
// or the subscription is drained.
func (q *NATSQueue) Subscribe(ctx context.Context, applier Applier) (*nats.Subscription, error) {
	sub, err := q.nc.QueueSubscribe(q.subject, queueGroup, func(msg *nats.Msg) {
		var in domain.Intent
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			slog.Error("discarding malformed intent", "subject", msg.Subject, "error", err)
			return
		}
		// Apply logs and counts its own failures.
		_ = applier.Apply(ctx, in)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", q.subject, err)
	}
	slog.Info("subscribed to index intents", "subject", q.subject, "group", queueGroup)
	return sub, nil
}
