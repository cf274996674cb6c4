// Package metrics 暴露站点的 Prometheus 指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests served through the page tree fallback.
const unmatchedRoute = "page_tree"

// Metrics holds the collectors registered for one server.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	listings     *prometheus.CounterVec
	tagRedirects *prometheus.CounterVec
}

// New creates a Metrics set on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collider",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "collider",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collider",
			Name:      "index_listings_total",
			Help:      "Index listings served, split by tag filtering.",
		}, []string{"index_type", "filtered"}),
		tagRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collider",
			Name:      "tag_redirects_total",
			Help:      "Tag archive requests redirected to the index.",
		}, []string{"index_type", "reason"}),
	}
	registry.MustRegister(m.requests, m.duration, m.listings, m.tagRedirects)
	return m
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Listing counts one index listing.
func (m *Metrics) Listing(indexType string, filtered bool) {
	if m == nil {
		return
	}
	m.listings.WithLabelValues(indexType, strconv.FormatBool(filtered)).Inc()
}

// TagRedirect counts a tag archive redirect. Unknown slugs and absent slugs
// are reported separately.
func (m *Metrics) TagRedirect(indexType string, unknown bool) {
	if m == nil {
		return
	}
	reason := "absent"
	if unknown {
		reason = "unknown"
	}
	m.tagRedirects.WithLabelValues(indexType, reason).Inc()
}
