// Package metrics exposes history and request counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordrecall"

var (
	wordsDesc = prometheus.NewDesc(
		namespace+"_history_words",
		"Distinct words in the history",
		nil, nil,
	)
	nodesDesc = prometheus.NewDesc(
		namespace+"_history_nodes",
		"Trie nodes backing the history",
		nil, nil,
	)
	submissionsDesc = prometheus.NewDesc(
		namespace+"_submissions_total",
		"Submissions recorded into the history",
		nil, nil,
	)
	rejectedDesc = prometheus.NewDesc(
		namespace+"_submissions_rejected_total",
		"Submissions rejected as empty or invalid",
		nil, nil,
	)
	styleDesc = prometheus.NewDesc(
		namespace+"_completion_style",
		"Configured completion style (0 lexicographical, 1 frequency)",
		nil, nil,
	)
)

// StatsSource is anything that can report history counters, usually a
// *suggest.Provider.
type StatsSource interface {
	Stats() map[string]int
}

// HistoryCollector reads the source's counters on each scrape.
type HistoryCollector struct {
	source StatsSource
}

// NewHistoryCollector returns a collector over source.
func NewHistoryCollector(source StatsSource) *HistoryCollector {
	return &HistoryCollector{source: source}
}

// Describe sends the metric descriptors to the channel.
func (c *HistoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- wordsDesc
	ch <- nodesDesc
	ch <- submissionsDesc
	ch <- rejectedDesc
	ch <- styleDesc
}

// Collect emits the current counters.
func (c *HistoryCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(wordsDesc, prometheus.GaugeValue, float64(stats["words"]))
	ch <- prometheus.MustNewConstMetric(nodesDesc, prometheus.GaugeValue, float64(stats["nodes"]))
	ch <- prometheus.MustNewConstMetric(submissionsDesc, prometheus.CounterValue, float64(stats["submissions"]))
	ch <- prometheus.MustNewConstMetric(rejectedDesc, prometheus.CounterValue, float64(stats["rejected"]))
	ch <- prometheus.MustNewConstMetric(styleDesc, prometheus.GaugeValue, float64(stats["style"]))
}

// Metrics owns a registry with the history collector and request counters.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New registers a history collector over source plus request metrics on a
// fresh registry.
func New(source StatsSource) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled by action and outcome",
		}, []string{"action", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling time by action",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		}, []string{"action"}),
	}
	m.registry.MustRegister(NewHistoryCollector(source), m.requests, m.latency)
	return m
}

// ObserveRequest counts one request and its handling time.
func (m *Metrics) ObserveRequest(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(action, outcome).Inc()
	m.latency.WithLabelValues(action).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
