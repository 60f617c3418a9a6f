// Package metric holds the Prometheus collectors shared by the pipeline,
// the memo caches and the filter evaluator.
//
// Every recording method is safe to call on a nil *Metrics so components can
// take metrics as an optional dependency.
package metric

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "pointdeck"

// Cache events recorded by RecordCache.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheClear = "clear"
)

// Metrics contains all engine-level collectors.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheEvents     *prometheus.CounterVec
	IndexedPoints   prometheus.Gauge
	FilterFailures  prometheus.Counter
}

// New creates the collectors without registering them.
func New() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "requests_total",
				Help:      "Pipeline requests by action and outcome",
			},
			[]string{"action", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "request_duration_seconds",
				Help:      "Time spent fetching and transforming a resource",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		CacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "memo",
				Name:      "events_total",
				Help:      "Memo cache hits, misses and overflow clears",
			},
			[]string{"cache", "event"},
		),
		IndexedPoints: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "points",
				Help:      "Number of points in the most recently built index",
			},
		),
		FilterFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "filter",
				Name:      "failures_total",
				Help:      "Filter expressions that failed and fell back to the unfiltered input",
			},
		),
	}
}

// Register adds every collector to reg. Collectors that are already
// registered are accepted so that the same Metrics can be registered twice.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if stderrors.As(err, &already) {
				continue
			}
			return fmt.Errorf("registering collector: %w", err)
		}
	}
	return nil
}

// NewRegistry returns a fresh registry carrying the engine collectors and the
// Go runtime collectors.
func NewRegistry() (*prometheus.Registry, *Metrics, error) {
	reg := prometheus.NewRegistry()
	m := New()
	if err := m.Register(reg); err != nil {
		return nil, nil, err
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests,
		m.RequestDuration,
		m.CacheEvents,
		m.IndexedPoints,
		m.FilterFailures,
	}
}

// RecordRequest counts a finished pipeline request.
func (m *Metrics) RecordRequest(action, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(action, status).Inc()
	m.RequestDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// RecordCache counts a memo cache event.
func (m *Metrics) RecordCache(cache, event string) {
	if m == nil {
		return
	}
	m.CacheEvents.WithLabelValues(cache, event).Inc()
}

// SetIndexedPoints records the size of the latest point index.
func (m *Metrics) SetIndexedPoints(n int) {
	if m == nil {
		return
	}
	m.IndexedPoints.Set(float64(n))
}

// RecordFilterFailure counts a fail-open filter evaluation.
func (m *Metrics) RecordFilterFailure() {
	if m == nil {
		return
	}
	m.FilterFailures.Inc()
}
