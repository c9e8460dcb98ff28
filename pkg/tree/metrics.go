package tree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/rendertree/pkg/frame"
)

// MetricsConfig configures the Prometheus collectors for builders and stores.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "rendertree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for sequence sizes in frames.
	// Default: exponential from 8 to 131072.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the sequence size histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
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
		Namespace: "rendertree",
		Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors updated by Builder and Store.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	buildsTotal    *prometheus.CounterVec
	framesTotal    *prometheus.CounterVec
	sequenceFrames prometheus.Histogram
	publishesTotal prometheus.Counter
	version        prometheus.Gauge
}

// NewMetrics registers the collectors with the configured registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "builds_total",
			Help:        "Total number of Builder.Build calls by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		framesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_emitted_total",
			Help:        "Total number of frames appended by builders, by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		sequenceFrames: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sequence_frames",
			Help:        "Number of frames in built sequences",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		publishesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "publishes_total",
			Help:        "Total number of sequences published to a store",
			ConstLabels: config.ConstLabels,
		}),

		version: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "published_version",
			Help:        "Version of the most recently published sequence",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) recordFrame(k frame.Kind) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) recordBuild(frames int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.buildsTotal.WithLabelValues("error").Inc()
		return
	}
	m.buildsTotal.WithLabelValues("ok").Inc()
	m.sequenceFrames.Observe(float64(frames))
}

func (m *Metrics) recordPublish(version uint64) {
	if m == nil {
		return
	}
	m.publishesTotal.Inc()
	m.version.Set(float64(version))
}
