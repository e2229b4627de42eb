// Package telemetry provides observability instrumentation for parasol.
//
// The telemetry package integrates structured logging (zerolog), distributed
// tracing (OpenTelemetry), and metrics (Prometheus) into a unified system for
// monitoring and debugging sweep runs.
//
// # Architecture
//
// The telemetry system is built on three pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with multiple exporters
//  3. Metrics Collection - Prometheus metrics for sweep accounting
//
// By default only logging is active: parasol is usually a short-lived
// command, and traces and metrics are opt-in for the sweeps that run long
// enough to need them.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// The sweep engine picks the instance up from the context (or from its
// request) and instruments the run with no further wiring.
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context
// propagation:
//
//	logger := tel.Logger.NewComponentLogger("engine")
//	logger = logger.WithSweepID("2026-08-22T10_42_00").WithSimulationID("07")
//	logger.Info("prepared simulation")
//	logger.WithError(err).Error("dispatch failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
// Tracing covers a sweep run with one span per sweep and one per
// simulation:
//
//	ctx, span := tel.Tracer.StartSweepSpan(ctx, sweepID)
//	defer span.End()
//
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// Supported exporters: OTLP (production), Stdout (development), none
// (testing).
//
// # Metrics
//
// Prometheus metrics track sweep throughput:
//
//	tel.Metrics.RecordSweepStarted("concurrent")
//	tel.Metrics.RecordSimulationDispatched()
//	tel.Metrics.RecordSweepCompleted("completed", duration)
//
// Key metrics exposed:
//
//   - parasol_sweeps_started_total{mode}
//   - parasol_sweeps_completed_total{status}
//   - parasol_sweep_duration_seconds{status}
//   - parasol_simulations_dispatched_total
//   - parasol_configs_written_total
//   - parasol_mappings_saved_total{format}
//   - parasol_errors_total{kind}
//   - parasol_active_sweeps
//
// Metrics are exposed via HTTP at /metrics (default: :9090/metrics) when
// enabled.
//
// # Context Helpers
//
// High-level helpers simplify common instrumentation patterns:
//
//	ic := telemetry.StartOperation(ctx, "sweep.run",
//	    telemetry.AttrSweepID.String(sweepID))
//	defer ic.End(err)
//
//	ctx = telemetry.WithSweepContext(ctx, sweepID, mode)
//	defer telemetry.EndSweepContext(ctx, status, err)
//
// # Configuration
//
// The package provides pre-configured setups for different environments:
//
//	// Development (debug logging, stdout traces, full sampling)
//	cfg := telemetry.DevelopmentConfig()
//
//	// Production (JSON logs, OTLP traces, 10% sampling, metrics on)
//	cfg := telemetry.ProductionConfig()
//
// # Graceful Shutdown
//
// Always shut down telemetry before exiting to flush pending spans:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("telemetry shutdown error: %v", err)
//	}
package telemetry
