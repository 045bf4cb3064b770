package telemetry

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/evalboard/pkg/router"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "evalboard").
	Namespace string

	// Subsystem is the metrics subsystem (default: "navigation").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
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

// WithBuckets sets the duration histogram buckets.
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
		Namespace: "evalboard",
		Subsystem: "navigation",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a router.Observer recording navigation metrics:
//   - evalboard_navigation_total: navigations by status and origin
//   - evalboard_navigation_duration_seconds: duration by status
//   - evalboard_navigation_redirect_hops: redirects followed per navigation
//   - evalboard_navigation_errors_total: failures by error kind
//   - evalboard_navigation_active_sessions: live client sessions
type Metrics struct {
	navigations    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	hops           prometheus.Histogram
	errors         *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewPrometheus registers the navigation metrics and returns the observer.
// It panics if the metrics are already registered in the chosen registry.
func NewPrometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "total",
			Help:        "Total number of navigation attempts",
			ConstLabels: config.ConstLabels,
		}, []string{"status", "origin"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "duration_seconds",
			Help:        "Navigation duration in seconds, guards included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"status"}),

		hops: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "redirect_hops",
			Help:        "Redirects followed per navigation",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 3, 5, 10},
		}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Navigation failures by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected navigation sessions",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveNavigation implements router.Observer.
func (m *Metrics) ObserveNavigation(ctx context.Context, ev router.Event) {
	status := ev.Status.String()
	m.navigations.WithLabelValues(status, ev.Origin.String()).Inc()
	m.duration.WithLabelValues(status).Observe(ev.Duration.Seconds())
	m.hops.Observe(float64(ev.Hops))
	if ev.Err != nil {
		m.errors.WithLabelValues(ErrorKind(ev.Err)).Inc()
	}
}

// SessionStarted increments the active session gauge.
func (m *Metrics) SessionStarted() {
	m.activeSessions.Inc()
}

// SessionEnded decrements the active session gauge.
func (m *Metrics) SessionEnded() {
	m.activeSessions.Dec()
}

// ErrorKind maps a navigation error to a short label value.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, router.ErrRouteNotFound):
		return "not_found"
	case errors.Is(err, router.ErrRedirectLoop):
		return "redirect_loop"
	case errors.Is(err, router.ErrGuardTimeout):
		return "guard_timeout"
	case errors.Is(err, router.ErrGuardFailed):
		return "guard_error"
	case errors.Is(err, router.ErrSuperseded):
		return "superseded"
	default:
		return "other"
	}
}
