package telemetry

import (
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"default", func(c *Config) {}, ""},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, "service name is required"},
		{"missing version", func(c *Config) { c.ServiceVersion = "" }, "service version is required"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{
			"bad exporter",
			func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "jaeger"
			},
			"invalid trace exporter",
		},
		{
			"exporter ignored while tracing off",
			func(c *Config) { c.Tracing.Exporter = "jaeger" },
			"",
		},
		{
			"sampling rate too high",
			func(c *Config) { c.Tracing.SamplingRate = 1.5 },
			"sampling rate",
		},
		{
			"metrics without address",
			func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.ListenAddress = ""
			},
			"listen address is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" || cfg.Logging.Output != "stderr" {
		t.Errorf("logging defaults = %s/%s/%s", cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should default off")
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should default off")
	}
	if cfg.Metrics.Namespace != "parasol" {
		t.Errorf("metrics namespace = %q", cfg.Metrics.Namespace)
	}
}

func TestConfigProfiles(t *testing.T) {
	prod := ProductionConfig()
	if err := prod.Validate(); err != nil {
		t.Errorf("ProductionConfig().Validate() error = %v", err)
	}
	if prod.Logging.Format != "json" || !prod.Logging.EnableSampling {
		t.Error("production profile should log sampled JSON")
	}
	if !prod.Tracing.Enabled || prod.Tracing.Exporter != "otlp" {
		t.Error("production profile should export OTLP traces")
	}
	if !prod.Metrics.Enabled {
		t.Error("production profile should enable metrics")
	}

	dev := DevelopmentConfig()
	if err := dev.Validate(); err != nil {
		t.Errorf("DevelopmentConfig().Validate() error = %v", err)
	}
	if dev.Logging.Level != "debug" || !dev.Logging.EnableCaller {
		t.Error("development profile should log debug with caller info")
	}
	if dev.Tracing.Exporter != "stdout" {
		t.Errorf("development trace exporter = %q", dev.Tracing.Exporter)
	}
}
