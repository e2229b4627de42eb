package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for parasol sweeps.
type Metrics struct {
	config MetricsConfig

	// Sweep metrics
	sweepsStarted   *prometheus.CounterVec
	sweepsCompleted *prometheus.CounterVec
	sweepDuration   *prometheus.HistogramVec

	// Simulation metrics
	simulationsDispatched prometheus.Counter
	configsWritten        prometheus.Counter
	mappingsSaved         *prometheus.CounterVec

	// Error metrics
	errorsByKind *prometheus.CounterVec

	// System metrics
	activeSweeps prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		sweepsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweeps_started_total",
				Help:      "Total number of sweeps started",
			},
			[]string{"mode"},
		),
		sweepsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweeps_completed_total",
				Help:      "Total number of sweeps completed",
			},
			[]string{"status"},
		),
		sweepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sweep_duration_seconds",
				Help:      "Duration of sweep execution in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		simulationsDispatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulations_dispatched_total",
				Help:      "Total number of simulation commands dispatched",
			},
		),
		configsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "configs_written_total",
				Help:      "Total number of configuration files written",
			},
		),
		mappingsSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mappings_saved_total",
				Help:      "Total number of simulation ID mappings persisted",
			},
			[]string{"format"},
		),

		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of sweep errors by kind",
			},
			[]string{"kind"},
		),

		activeSweeps: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sweeps",
				Help:      "Current number of sweeps in progress",
			},
		),
	}

	registry.MustRegister(
		m.sweepsStarted,
		m.sweepsCompleted,
		m.sweepDuration,
		m.simulationsDispatched,
		m.configsWritten,
		m.mappingsSaved,
		m.errorsByKind,
		m.activeSweeps,
	)

	return m, nil
}

// Sweep Metrics

// RecordSweepStarted increments the counter for started sweeps. The mode
// label is one of concurrent, serial, or render-only.
func (m *Metrics) RecordSweepStarted(mode string) {
	if m == nil || m.sweepsStarted == nil {
		return
	}
	m.sweepsStarted.WithLabelValues(mode).Inc()
	m.activeSweeps.Inc()
}

// RecordSweepCompleted records a finished sweep with its status and duration.
func (m *Metrics) RecordSweepCompleted(status string, duration time.Duration) {
	if m == nil || m.sweepsCompleted == nil {
		return
	}
	m.sweepsCompleted.WithLabelValues(status).Inc()
	m.sweepDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.activeSweeps.Dec()
}

// Simulation Metrics

// RecordSimulationDispatched increments the dispatched simulation counter.
func (m *Metrics) RecordSimulationDispatched() {
	if m == nil || m.simulationsDispatched == nil {
		return
	}
	m.simulationsDispatched.Inc()
}

// RecordConfigWritten increments the written configuration file counter.
func (m *Metrics) RecordConfigWritten() {
	if m == nil || m.configsWritten == nil {
		return
	}
	m.configsWritten.Inc()
}

// RecordMappingSaved records a persisted simulation ID mapping by format
// (nc or json).
func (m *Metrics) RecordMappingSaved(format string) {
	if m == nil || m.mappingsSaved == nil {
		return
	}
	m.mappingsSaved.WithLabelValues(format).Inc()
}

// Error Metrics

// RecordError records a sweep error by kind.
func (m *Metrics) RecordError(kind string) {
	if m == nil || m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if m == nil || !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
