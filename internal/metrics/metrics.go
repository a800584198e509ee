// Package metrics exposes Prometheus collectors for the concert server.
//
// All methods are safe to call on a nil *Metrics, which makes instrumentation
// optional for tests and CLI commands.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "concert_server"

// Metrics holds the server's collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups   *prometheus.CounterVec
	cacheEntries   prometheus.Gauge
	upstreamTotal  *prometheus.CounterVec
	upstreamDur    *prometheus.HistogramVec
	extractions    *prometheus.CounterVec
	extractedItems prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	httpDur        *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Category cache lookups by result (hit or miss)",
	}, []string{"category", "result"})
	m.cacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_entries",
		Help:      "Number of categories currently held in the cache",
	})
	m.upstreamTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Upstream requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	m.upstreamDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	m.extractions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticket_open_extractions_total",
		Help:      "Ticket-open HTML extractions by winning strategy (none when all failed)",
	}, []string{"strategy"})
	m.extractedItems = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ticket_open_extracted_entries",
		Help:      "Entries produced per ticket-open extraction",
		Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
	})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served by route and status code",
	}, []string{"method", "route", "code"})
	m.httpDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheLookups,
		m.cacheEntries,
		m.upstreamTotal,
		m.upstreamDur,
		m.extractions,
		m.extractedItems,
		m.httpRequests,
		m.httpDur,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit(category string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(category, "hit").Inc()
}

func (m *Metrics) CacheMiss(category string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(category, "miss").Inc()
}

func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

// ObserveUpstream records one upstream request.
func (m *Metrics) ObserveUpstream(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamDur.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveExtraction records which HTML strategy produced results.
func (m *Metrics) ObserveExtraction(strategy string, entries int) {
	if m == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	m.extractions.WithLabelValues(strategy).Inc()
	m.extractedItems.Observe(float64(entries))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDur.WithLabelValues(route).Observe(d.Seconds())
}
