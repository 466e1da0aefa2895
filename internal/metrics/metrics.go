// Package metrics exposes the browser's Prometheus metrics. Every method
// is safe to call on a nil *Collector, which records nothing.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
)

// Namespace prefixes every metric name.
const Namespace = "ottobrowse"

// Dispatch triggers.
const (
	TriggerFacet    = "facet"
	TriggerSort     = "sort"
	TriggerSearch   = "search"
	TriggerReset    = "reset"
	TriggerMore     = "more"
	TriggerRefresh  = "refresh"
	TriggerPrefetch = "prefetch"
)

// Collector holds all Prometheus metrics for the application on a private
// registry, so several collectors can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	Dispatches     *prometheus.CounterVec
	StaleResponses prometheus.Counter
	FetchErrors    *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// NewCollector creates and registers the metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "dispatches_total",
			Help:      "Queries dispatched to the recipe provider, by trigger.",
		}, []string{"trigger"}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "stale_responses_total",
			Help:      "Provider responses dropped because a newer request was issued.",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed provider fetches, by kind.",
		}, []string{"kind"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Provider fetch latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_hits_total",
			Help:      "Pages served from the page cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_misses_total",
			Help:      "Pages not found in the page cache.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.Dispatches,
		c.StaleResponses,
		c.FetchErrors,
		c.FetchDuration,
		c.CacheHits,
		c.CacheMisses,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// Registry returns the registry holding the metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordDispatch counts a query sent to the provider.
func (c *Collector) RecordDispatch(trigger string) {
	if c == nil {
		return
	}
	c.Dispatches.WithLabelValues(trigger).Inc()
}

// RecordStale counts a dropped response.
func (c *Collector) RecordStale() {
	if c == nil {
		return
	}
	c.StaleResponses.Inc()
}

// RecordFetch observes one provider call and classifies its error.
func (c *Collector) RecordFetch(d time.Duration, err error) {
	if c == nil {
		return
	}
	c.FetchDuration.Observe(d.Seconds())
	if err != nil {
		c.FetchErrors.WithLabelValues(ErrorKind(err)).Inc()
	}
}

// RecordCache counts a page cache lookup.
func (c *Collector) RecordCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}

// RecordHTTP counts one served API request.
func (c *Collector) RecordHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ErrorKind maps a fetch error to a low-cardinality label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrProviderError):
		return "provider"
	default:
		return "other"
	}
}
