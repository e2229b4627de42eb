package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry bundles the logger, tracer, and metrics of one process.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Config  *Config
}

type telemetryKey struct{}

// NewTelemetry validates cfg and builds all three components.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}
	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	return &Telemetry{Logger: logger, Tracer: tracer, Metrics: metrics, Config: cfg}, nil
}

// WithContext stores the telemetry instance, and its logger, in ctx.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	return t.Logger.WithContext(context.WithValue(ctx, telemetryKey{}, t))
}

// FromTelemetryContext returns the telemetry stored in ctx, or nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	t, _ := ctx.Value(telemetryKey{}).(*Telemetry)
	return t
}

// Shutdown flushes and stops the tracer. The metrics server keeps serving
// until process exit so late scrapes still see the final counters.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.Tracer.Shutdown(ctx)
}

// Flush exports any buffered spans without shutting down.
func (t *Telemetry) Flush(ctx context.Context) error {
	return t.Tracer.ForceFlush(ctx)
}

// StartMetricsServer starts the metrics HTTP endpoint if metrics are
// enabled.
func (t *Telemetry) StartMetricsServer() error {
	return t.Metrics.StartMetricsServer()
}

// InstrumentedContext carries the pieces of one instrumented operation.
type InstrumentedContext struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation opens a span, a scoped logger, and a timer for one named
// operation. Without telemetry in ctx it degrades to a bare logger and
// timer with no span.
func StartOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) *InstrumentedContext {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &InstrumentedContext{Ctx: ctx, Logger: FromContext(ctx), Timer: NewTimer()}
	}

	spanCtx, span := tel.Tracer.StartSpan(ctx, operation, attrs...)
	logger := tel.Logger.WithField("operation", operation)
	if span.SpanContext().IsValid() {
		logger = logger.WithFields(map[string]interface{}{
			"trace_id": TraceID(spanCtx),
			"span_id":  SpanID(spanCtx),
		})
	}
	return &InstrumentedContext{Ctx: spanCtx, Span: span, Logger: logger, Timer: NewTimer()}
}

// End closes the operation, recording err on its span when one is open.
func (ic *InstrumentedContext) End(err error) {
	if ic.Span == nil {
		return
	}
	if err != nil {
		RecordError(ic.Span, err)
	} else {
		RecordSuccess(ic.Span)
	}
	ic.Span.End()
}

// sweepState holds the span and timer of the sweep in flight.
type sweepState struct {
	span  trace.Span
	timer *Timer
}

type sweepStateKey struct{}

// WithSweepContext opens the sweep span, binds a sweep-scoped logger, and
// records the started metric. EndSweepContext closes what this opened.
// Without telemetry in ctx it returns ctx unchanged.
func WithSweepContext(ctx context.Context, sweepID, mode string) context.Context {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx
	}

	spanCtx, span := tel.Tracer.StartSweepSpan(ctx, sweepID)
	span.SetAttributes(AttrSweepMode.String(mode))
	spanCtx = tel.Logger.WithSweepID(sweepID).WithContext(spanCtx)

	tel.Metrics.RecordSweepStarted(mode)

	return context.WithValue(spanCtx, sweepStateKey{}, &sweepState{
		span:  span,
		timer: NewTimer(),
	})
}

// EndSweepContext records the sweep outcome on the span and metrics
// opened by WithSweepContext. Safe to call on a context without
// telemetry.
func EndSweepContext(ctx context.Context, status string, err error) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return
	}

	var duration time.Duration
	if st, ok := ctx.Value(sweepStateKey{}).(*sweepState); ok {
		if err != nil {
			RecordError(st.span, err)
		} else {
			RecordSuccess(st.span)
		}
		st.span.End()
		duration = st.timer.Duration()
	}
	tel.Metrics.RecordSweepCompleted(status, duration)
}
