// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is the recording interface used by the search workers and the HTTP layer.
type MetricsCollector interface {
	RecordIntentEnqueued(op string)
	RecordIntentDropped(reason string)
	RecordIndexApplied(op string)
	RecordIndexFailure(op string)
	RecordSearchLatency(duration time.Duration)
	RecordReindexed(count int)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Collector is the Prometheus implementation of MetricsCollector.
type Collector struct {
	intentsEnqueued *prometheus.CounterVec
	intentsDropped  *prometheus.CounterVec
	indexApplied    *prometheus.CounterVec
	indexFailures   *prometheus.CounterVec
	searchLatency   prometheus.Histogram
	reindexed       prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		intentsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microblog_search_intents_enqueued_total",
			Help: "Index intents handed to the queue, by operation.",
		}, []string{"op"}),
		intentsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microblog_search_intents_dropped_total",
			Help: "Index intents that never reached the index, by reason.",
		}, []string{"reason"}),
		indexApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microblog_search_index_applied_total",
			Help: "Index intents applied successfully, by operation.",
		}, []string{"op"}),
		indexFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microblog_search_index_failures_total",
			Help: "Index intents that failed to apply, by operation.",
		}, []string{"op"}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "microblog_search_latency_seconds",
			Help:    "Latency of keyword searches.",
			Buckets: prometheus.DefBuckets,
		}),
		reindexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "microblog_search_reindexed_total",
			Help: "Posts re-added to the index by full rebuilds.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "microblog_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "microblog_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.intentsEnqueued,
		c.intentsDropped,
		c.indexApplied,
		c.indexFailures,
		c.searchLatency,
		c.reindexed,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// RecordIntentEnqueued counts an intent accepted by the queue.
func (c *Collector) RecordIntentEnqueued(op string) {
	c.intentsEnqueued.WithLabelValues(op).Inc()
}

// RecordIntentDropped counts an intent lost before reaching the index.
func (c *Collector) RecordIntentDropped(reason string) {
	c.intentsDropped.WithLabelValues(reason).Inc()
}

// RecordIndexApplied counts a successful index mutation.
func (c *Collector) RecordIndexApplied(op string) {
	c.indexApplied.WithLabelValues(op).Inc()
}

// RecordIndexFailure counts a failed index mutation.
func (c *Collector) RecordIndexFailure(op string) {
	c.indexFailures.WithLabelValues(op).Inc()
}

// RecordSearchLatency observes one search.
func (c *Collector) RecordSearchLatency(duration time.Duration) {
	c.searchLatency.Observe(duration.Seconds())
}

// RecordReindexed adds count posts to the rebuild counter.
func (c *Collector) RecordReindexed(count int) {
	c.reindexed.Add(float64(count))
}

// RecordHTTPRequest observes one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// Middleware records every request handled by the gin engine.
// Unmatched routes are grouped under "unmatched" to bound label cardinality.
func Middleware(m MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every measurement. It is used by tools that do not expose /metrics.
type Nop struct{}

var _ MetricsCollector = Nop{}

func (Nop) RecordIntentEnqueued(string) {}
func (Nop) RecordIntentDropped(string) {}
func (Nop) RecordIndexApplied(string) {}
func (Nop) RecordIndexFailure(string) {}
func (Nop) RecordSearchLatency(time.Duration) {}
func (Nop) RecordReindexed(int) {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
