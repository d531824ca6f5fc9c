package inspect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/go-drift/arbor/pkg/lifecycle"
)

// MetricsConfig configures the lifecycle metrics collector.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "arbor").
	Namespace string

	// Subsystem is the metrics subsystem (default: "lifecycle").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the lifecycle metrics collector.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "arbor",
		Subsystem: "lifecycle",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics derived from registry transitions.
type metrics struct {
	attachmentsTotal *prometheus.CounterVec
	shadowedTotal    prometheus.Counter
	firedTotal       *prometheus.CounterVec
	liveAttachments  prometheus.Gauge
}

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		attachmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "attachments_total",
			Help:        "Total number of removal attachments registered",
			ConstLabels: config.ConstLabels,
		}, []string{"tier"}),

		shadowedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "shadowed_total",
			Help:        "Total number of attachments shadowed by an outer one",
			ConstLabels: config.ConstLabels,
		}),

		firedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fired_total",
			Help:        "Total number of removal callbacks fired",
			ConstLabels: config.ConstLabels,
		}, []string{"tier"}),

		liveAttachments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_attachments",
			Help:        "Number of currently live removal attachments",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveRegistry wires the registry's transitions into Prometheus metrics.
//
// Metrics collected:
//   - arbor_lifecycle_attachments_total: Counter of registrations by tier
//   - arbor_lifecycle_shadowed_total: Counter of shadowed attachments
//   - arbor_lifecycle_fired_total: Counter of fired callbacks by tier
//   - arbor_lifecycle_live_attachments: Gauge of live attachments
//
// The returned cancel function detaches the observer.
func ObserveRegistry(registry *lifecycle.Registry, opts ...MetricsOption) func() {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := initMetrics(config)

	return registry.Subscribe(func(event lifecycle.Event) {
		switch event.Kind {
		case lifecycle.EventAttached, lifecycle.EventAdopted:
			// An adoption registers a new attachment while its superseded
			// predecessor still awaits the host's disappeared event; both
			// settle through their own fired events.
			m.attachmentsTotal.WithLabelValues(event.Tier).Inc()
			m.liveAttachments.Inc()
		case lifecycle.EventShadowed:
			m.shadowedTotal.Inc()
		case lifecycle.EventFired:
			m.firedTotal.WithLabelValues(event.Tier).Inc()
			m.liveAttachments.Dec()
		}
	})
}
