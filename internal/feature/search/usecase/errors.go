// Package usecase mirrors committed post changes into the keyword index and serves searches.
package usecase

import "errors"

var (
	// ErrEmptyQuery is returned when a search expression has no content.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrIndexUnavailable is returned when the keyword index cannot answer a query.
	// It is distinct from a query that matched nothing.
	ErrIndexUnavailable = errors.New("search index unavailable")

	// ErrQueueFull is returned by an IntentQueue that cannot accept more work.
	ErrQueueFull = errors.New("index queue is full")

	// ErrQueueClosed is returned by an IntentQueue after Close.
	ErrQueueClosed = errors.New("index queue is closed")

	// ErrUnknownOp is returned when an intent carries an unsupported operation.
	ErrUnknownOp = errors.New("unknown index operation")

	// ErrReindexRunning is returned when a rebuild is requested while another one runs.
	ErrReindexRunning = errors.New("reindex already running")
)
