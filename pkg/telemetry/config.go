package telemetry

import (
	"fmt"
	"time"
)

// Config gathers the logging, tracing, and metrics settings for one
// parasol process.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Environment tags exported telemetry with the deployment
	// environment, e.g. "development" or "production".
	Environment string

	Logging LoggingConfig
	Tracing TracingConfig
	Metrics MetricsConfig

	// ResourceAttributes are attached to every exported span.
	ResourceAttributes map[string]string
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is the minimum level emitted: trace, debug, info, warn,
	// error, or fatal.
	Level string

	// Format is "console" or "json".
	Format string

	// Output names the sink: stdout, stderr, or a file path.
	Output string

	// EnableCaller adds file:line to every entry.
	EnableCaller bool

	// EnableSampling rate-limits bursts: SamplingInitial entries pass per
	// second, then every SamplingThereafter-th entry.
	EnableSampling     bool
	SamplingInitial    int
	SamplingThereafter int

	// TimeFormat is rfc3339, unix, unixms, or unixmicro.
	TimeFormat string
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled bool

	// Exporter is "otlp", "stdout", or "none".
	Exporter string

	// Endpoint is the OTLP collector address, host:port.
	Endpoint string

	// SamplingRate keeps this fraction of root spans, 0 through 1.
	SamplingRate float64

	MaxExportBatchSize int
	ExportTimeout      time.Duration

	// Headers accompany every OTLP export request.
	Headers map[string]string

	// Insecure disables TLS on the OTLP connection.
	Insecure bool
}

// MetricsConfig controls the Prometheus registry and its HTTP endpoint.
type MetricsConfig struct {
	Enabled       bool
	ListenAddress string
	Path          string
	Namespace     string

	// DefaultHistogramBuckets are duration buckets in seconds. Sweeps run
	// from seconds to hours, so the buckets reach further than typical
	// request-latency buckets.
	DefaultHistogramBuckets []float64
}

// DefaultConfig returns the default telemetry configuration: console
// logging only. Tracing and metrics stay off unless asked for; parasol is
// usually a short-lived command, not a server.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "parasol",
		ServiceVersion: "dev",
		Environment:    "development",
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "console",
			Output:             "stderr",
			SamplingInitial:    100,
			SamplingThereafter: 100,
			TimeFormat:         "rfc3339",
		},
		Tracing: TracingConfig{
			Exporter:           "stdout",
			SamplingRate:       1.0,
			MaxExportBatchSize: 512,
			ExportTimeout:      30 * time.Second,
			Headers:            map[string]string{},
			Insecure:           true,
		},
		Metrics: MetricsConfig{
			ListenAddress: ":9090",
			Path:          "/metrics",
			Namespace:     "parasol",
			DefaultHistogramBuckets: []float64{
				0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600, 14400,
			},
		},
		ResourceAttributes: map[string]string{},
	}
}

// ProductionConfig returns a configuration suited to long-running sweeps
// on shared infrastructure: JSON logs, sampled OTLP traces, metrics on.
func ProductionConfig() *Config {
	cfg := DefaultConfig()
	cfg.Environment = "production"
	cfg.Logging.Format = "json"
	cfg.Logging.EnableSampling = true
	cfg.Logging.TimeFormat = "unix"
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.SamplingRate = 0.1
	cfg.Tracing.Insecure = false
	cfg.Metrics.Enabled = true
	return cfg
}

// DevelopmentConfig returns a configuration for working on parasol itself:
// debug console logs and pretty-printed stdout traces.
func DevelopmentConfig() *Config {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.EnableCaller = true
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "stdout"
	cfg.Tracing.SamplingRate = 1.0
	return cfg
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service version is required")
	}
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be 'console' or 'json')", c.Logging.Format)
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "otlp", "stdout", "none":
		default:
			return fmt.Errorf("invalid trace exporter: %s", c.Tracing.Exporter)
		}
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0 and 1, got: %f", c.Tracing.SamplingRate)
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics listen address is required when metrics are enabled")
	}
	return nil
}
