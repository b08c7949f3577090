package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/leobastiani/jotai/pkg/jotai"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "jotai").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for compute and settle
	// duration. Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
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

// WithBuckets sets the histogram buckets.
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
		Namespace: "jotai",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Prometheus is an Observer that records store activity as Prometheus
// metrics. Labels are intentionally low-cardinality: events are
// counted per result, never per atom.
type Prometheus struct {
	getsTotal       *prometheus.CounterVec
	computesTotal   *prometheus.CounterVec
	computeDuration prometheus.Histogram
	setsTotal       prometheus.Counter
	invalidations   prometheus.Counter
	notifications   prometheus.Counter
	settlesTotal    *prometheus.CounterVec
	settleDuration  prometheus.Histogram
}

// NewPrometheus creates a Prometheus observer. Registering the same
// configuration twice on the same registry panics, so create one per
// process (or per registry).
//
// Metrics collected:
//   - jotai_gets_total: Counter of reads by cache result ("hit"/"miss")
//   - jotai_computes_total: Counter of computations by status
//   - jotai_compute_duration_seconds: Histogram of computation duration
//   - jotai_sets_total: Counter of writes through writable atoms
//   - jotai_invalidations_total: Counter of atoms marked stale
//   - jotai_notifications_total: Counter of subscriber callback deliveries
//   - jotai_settles_total: Counter of async settlements by status
//   - jotai_settle_duration_seconds: Histogram of async resolve duration
func NewPrometheus(opts ...MetricsOption) *Prometheus {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Prometheus{
		getsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "gets_total",
			Help:        "Total number of atom reads by cache result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		computesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computes_total",
			Help:        "Total number of atom computations by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		computeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "compute_duration_seconds",
			Help:        "Atom computation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		setsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sets_total",
			Help:        "Total number of writes through writable atoms",
			ConstLabels: config.ConstLabels,
		}),

		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidations_total",
			Help:        "Total number of atoms marked stale",
			ConstLabels: config.ConstLabels,
		}),

		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of subscriber callback deliveries",
			ConstLabels: config.ConstLabels,
		}),

		settlesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "settles_total",
			Help:        "Total number of async settlements by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		settleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "settle_duration_seconds",
			Help:        "Async resolve duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

func (p *Prometheus) OnGet(_ jotai.AnyAtom, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.getsTotal.WithLabelValues(result).Inc()
}

func (p *Prometheus) OnCompute(_ jotai.AnyAtom, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.computesTotal.WithLabelValues(status).Inc()
	p.computeDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnSet(jotai.AnyAtom) {
	p.setsTotal.Inc()
}

func (p *Prometheus) OnInvalidate(_ jotai.AnyAtom, dependents int) {
	p.invalidations.Add(float64(1 + dependents))
}

func (p *Prometheus) OnNotify(_ jotai.AnyAtom, subscribers int) {
	p.notifications.Add(float64(subscribers))
}

func (p *Prometheus) OnSettle(_ jotai.AnyAtom, d time.Duration, superseded bool, err error) {
	status := "success"
	switch {
	case superseded:
		status = "superseded"
	case err != nil:
		status = "error"
	}
	p.settlesTotal.WithLabelValues(status).Inc()
	p.settleDuration.Observe(d.Seconds())
}

var _ jotai.Observer = (*Prometheus)(nil)
