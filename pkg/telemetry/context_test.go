package telemetry

import (
	"context"
	"strings"
	"testing"
)

func testTelemetry(t *testing.T) *Telemetry {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Logging.Output = "/dev/null"
	cfg.Metrics.Enabled = true
	tel, err := NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("NewTelemetry() error = %v", err)
	}
	return tel
}

func TestNewTelemetry(t *testing.T) {
	tel := testTelemetry(t)
	if tel.Logger == nil || tel.Tracer == nil || tel.Metrics == nil || tel.Config == nil {
		t.Fatal("NewTelemetry() left a component nil")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewTelemetryRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"
	if _, err := NewTelemetry(cfg); err == nil {
		t.Fatal("NewTelemetry() with a bad config should fail")
	}
}

func TestTelemetryContext(t *testing.T) {
	tel := testTelemetry(t)
	ctx := tel.WithContext(context.Background())
	if got := FromTelemetryContext(ctx); got != tel {
		t.Error("FromTelemetryContext should return the stored instance")
	}
	if got := FromContext(ctx); got != tel.Logger {
		t.Error("WithContext should also store the logger")
	}
	if got := FromTelemetryContext(context.Background()); got != nil {
		t.Errorf("FromTelemetryContext on an empty context = %v, want nil", got)
	}
}

func TestSweepContextRecordsMetrics(t *testing.T) {
	tel := testTelemetry(t)
	ctx := tel.WithContext(context.Background())

	ctx = WithSweepContext(ctx, "trial-7", "serial")
	body := scrape(t, tel.Metrics)
	if !strings.Contains(body, `parasol_sweeps_started_total{mode="serial"} 1`) {
		t.Error("starting the sweep context should record the started metric")
	}
	if !strings.Contains(body, "parasol_active_sweeps 1") {
		t.Error("the sweep should count as active")
	}

	EndSweepContext(ctx, "completed", nil)
	body = scrape(t, tel.Metrics)
	if !strings.Contains(body, `parasol_sweeps_completed_total{status="completed"} 1`) {
		t.Error("ending the sweep context should record the completion")
	}
	if !strings.Contains(body, "parasol_active_sweeps 0") {
		t.Error("the finished sweep should leave the active gauge")
	}
}

func TestSweepContextWithoutTelemetry(t *testing.T) {
	ctx := context.Background()
	if got := WithSweepContext(ctx, "trial", "serial"); got != ctx {
		t.Error("WithSweepContext without telemetry should return the context unchanged")
	}
	// Must not panic.
	EndSweepContext(ctx, "completed", nil)
}

func TestStartOperationWithoutTelemetry(t *testing.T) {
	ic := StartOperation(context.Background(), "render")
	if ic.Logger == nil || ic.Timer == nil {
		t.Fatal("StartOperation should fall back to a bare logger and timer")
	}
	if ic.Span != nil {
		t.Error("no telemetry, no span")
	}
	// End without a span must not panic.
	ic.End(nil)
}

func TestStartOperationWithTelemetry(t *testing.T) {
	tel := testTelemetry(t)
	ctx := tel.WithContext(context.Background())
	ic := StartOperation(ctx, "render")
	if ic.Span == nil {
		t.Fatal("StartOperation with telemetry should open a span")
	}
	ic.End(nil)
}
