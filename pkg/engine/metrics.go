package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments. A nil *Metrics is
// valid and records nothing, so runtimes built without WithMetrics pay
// only a nil check per event.
type Metrics struct {
	renders           prometheus.Counter
	renderSkips       prometheus.Counter
	suspensions       prometheus.Counter
	componentFailures prometheus.Counter
	droppedEvents     prometheus.Counter
	transactions      prometheus.Counter
	txNoops           prometheus.Counter
	queryRefreshes    prometheus.Counter
	txDuration        prometheus.Histogram

	liveComponents prometheus.Gauge
	liveQueries    prometheus.Gauge
}

// MetricsOption configures metric construction.
type MetricsOption func(*metricsConfig)

type metricsConfig struct {
	registerer prometheus.Registerer
	namespace  string
}

// WithRegisterer registers the instruments with reg instead of the
// default registry. Tests pass a fresh registry to avoid duplicate
// registration panics.
func WithRegisterer(reg prometheus.Registerer) MetricsOption {
	return func(c *metricsConfig) { c.registerer = reg }
}

// WithNamespace overrides the metric namespace (default "strand").
func WithNamespace(ns string) MetricsOption {
	return func(c *metricsConfig) { c.namespace = ns }
}

// NewMetrics builds and registers the engine's instruments.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := metricsConfig{
		registerer: prometheus.DefaultRegisterer,
		namespace:  "strand",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.registerer)

	return &Metrics{
		renders: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "renders_total",
			Help:      "Component render passes that produced output.",
		}),
		renderSkips: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "render_skips_total",
			Help:      "Work passes that completed without rendering.",
		}),
		suspensions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "suspensions_total",
			Help:      "Work passes halted at an unready hook.",
		}),
		componentFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "component_failures_total",
			Help:      "Components marked failed by a hook or render panic.",
		}),
		droppedEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "dropped_events_total",
			Help:      "Events with no handler anywhere on the bubble path.",
		}),
		transactions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "transactions_total",
			Help:      "Store transactions committed.",
		}),
		txNoops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "transaction_noops_total",
			Help:      "Transactions whose handler wrote nothing.",
		}),
		queryRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "query_refreshes_total",
			Help:      "Query nodes invalidated by a committed transaction.",
		}),
		txDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Wall time from handler entry to invalidation fan-out.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		liveComponents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.namespace,
			Name:      "live_components",
			Help:      "Mounted, not-yet-destroyed components.",
		}),
		liveQueries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.namespace,
			Name:      "live_queries",
			Help:      "Registered query nodes.",
		}),
	}
}

func (m *Metrics) noteRender(skipped bool) {
	if m == nil {
		return
	}
	if skipped {
		m.renderSkips.Inc()
	} else {
		m.renders.Inc()
	}
}

func (m *Metrics) noteSuspension() {
	if m == nil {
		return
	}
	m.suspensions.Inc()
}

func (m *Metrics) noteComponentFailure() {
	if m == nil {
		return
	}
	m.componentFailures.Inc()
}

func (m *Metrics) noteDroppedEvent() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}

func (m *Metrics) noteTransaction(noop bool, seconds float64, refreshed int) {
	if m == nil {
		return
	}
	m.transactions.Inc()
	if noop {
		m.txNoops.Inc()
	}
	m.txDuration.Observe(seconds)
	m.queryRefreshes.Add(float64(refreshed))
}

func (m *Metrics) noteComponentCount(delta int) {
	if m == nil {
		return
	}
	m.liveComponents.Add(float64(delta))
}

func (m *Metrics) noteQueryCount(delta int) {
	if m == nil {
		return
	}
	m.liveQueries.Add(float64(delta))
}
