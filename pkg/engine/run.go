package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/parasol-run/parasol/pkg/dispatch"
	"github.com/parasol-run/parasol/pkg/files"
	"github.com/parasol-run/parasol/pkg/naming"
	"github.com/parasol-run/parasol/pkg/render"
	"github.com/parasol-run/parasol/pkg/sweep"
	"github.com/parasol-run/parasol/pkg/telemetry"
)

// RunSweep executes one parameter sweep. Every parameter set gets a
// simulation ID, one rendered configuration file per template, and,
// unless RenderOnly is set, a dispatched command. The returned mapping
// pairs every assigned ID with its parameter set.
//
// All errors are fatal to the sweep. Work committed before a failure
// (written files, dispatched simulations) is not rolled back; the caller
// fixes the cause and reruns. The context stops the loop between
// simulations and abandons waits; it never kills running simulations.
func RunSweep(ctx context.Context, req *Request) (m sweep.Mapping, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := &runner{req: req, sweepID: req.sweepID()}

	r.tel = req.Telemetry
	if r.tel == nil {
		r.tel = telemetry.FromTelemetryContext(ctx)
	}
	r.logger = telemetry.FromContext(ctx)
	if r.tel != nil {
		r.logger = r.tel.Logger
	}
	r.logger = r.logger.WithSweepID(r.sweepID)

	space, err := req.space()
	if err != nil {
		return nil, err
	}
	length := space.Length()

	if r.tel != nil {
		ctx = r.tel.WithContext(ctx)
		ctx = telemetry.WithSweepContext(ctx, r.sweepID, req.mode())
		telemetry.SpanFromContext(ctx).SetAttributes(telemetry.AttrSweepLength.Int(length))
		defer func() {
			status := "completed"
			if err != nil {
				status = "failed"
				if k, ok := kindOf(err); ok {
					r.tel.Metrics.RecordError(string(k))
				}
			}
			telemetry.EndSweepContext(ctx, status, err)
		}()
	}

	if req.Journal != nil {
		if jerr := req.Journal.BeginSweep(ctx, r.sweepID, req.Command, length); jerr != nil {
			return nil, NewStoreError("recording sweep start", jerr).WithSweep(r.sweepID)
		}
		defer func() {
			status := "completed"
			if err != nil {
				status = "failed"
			}
			jctx := context.WithoutCancel(ctx)
			if jerr := req.Journal.FinishSweep(jctx, r.sweepID, status); jerr != nil && err == nil {
				m, err = nil, NewStoreError("recording sweep completion", jerr).WithSweep(r.sweepID)
			}
		}()
	}

	r.eng, err = req.engine()
	if err != nil {
		return nil, err
	}

	r.nm = req.namer()
	if err := r.nm.Start(length); err != nil {
		return nil, NewNamingError("starting namer", err).WithSweep(r.sweepID)
	}

	r.disp = req.dispatcher()
	if !req.RenderOnly {
		if err := r.disp.InitializeSession(ctx); err != nil {
			return nil, NewDispatchError("initializing dispatch session", err).WithSweep(r.sweepID)
		}
	}
	r.writer = req.writer()

	r.ids = make([]string, 0, length)
	for set := range space.All() {
		if cerr := ctx.Err(); cerr != nil {
			return nil, NewDispatchError("sweep interrupted", cerr).WithSweep(r.sweepID)
		}
		if err := r.runOne(ctx, set); err != nil {
			return nil, err
		}
	}

	if (req.Wait || req.Cleanup) && !req.RenderOnly {
		if err := r.disp.WaitAll(ctx); err != nil {
			return nil, NewDispatchError("waiting for simulations", err).WithSweep(r.sweepID)
		}
	}
	if req.Cleanup {
		for _, path := range r.written {
			if err := r.writer.Remove(path); err != nil {
				return nil, NewPersistError("removing config file", err).WithSweep(r.sweepID).WithPath(path)
			}
		}
	}

	mapping, err := space.Mapping(r.ids, r.sweepID, req.SaveMapping)
	if err != nil {
		return nil, NewPersistError("recording simulation ID mapping", err).WithSweep(r.sweepID)
	}
	if req.SaveMapping {
		if r.tel != nil {
			r.tel.Metrics.RecordMappingSaved(strings.TrimPrefix(filepath.Ext(mapping.Filename()), "."))
		}
		if req.Verbose {
			r.logger.WithField("path", mapping.Filename()).Info("saved simulation ID mapping")
		}
	}
	return mapping, nil
}

// mode labels the sweep's execution style for metrics.
func (r *Request) mode() string {
	switch {
	case r.RenderOnly:
		return "render-only"
	case r.Serial:
		return "serial"
	default:
		return "concurrent"
	}
}

// runner carries per-sweep state through the simulation loop.
type runner struct {
	req     *Request
	tel     *telemetry.Telemetry
	logger  *telemetry.Logger
	eng     render.Engine
	nm      naming.Namer
	disp    dispatch.Dispatcher
	writer  files.Writer
	sweepID string
	ids     []string
	written []string
}

// runOne prepares and dispatches one simulation.
func (r *runner) runOne(ctx context.Context, set sweep.Params) (err error) {
	simID, err := r.nm.GenerateID(set, r.sweepID)
	if err != nil {
		return NewNamingError("generating simulation ID", err).WithSweep(r.sweepID)
	}
	r.ids = append(r.ids, simID)

	if r.tel != nil {
		var span trace.Span
		ctx, span = r.tel.Tracer.StartSimulationSpan(ctx, r.sweepID, simID)
		defer func() {
			if err != nil {
				telemetry.RecordError(span, err)
			} else {
				telemetry.RecordSuccess(span)
			}
			span.End()
		}()
	}

	texts, err := r.eng.Render(set)
	if err != nil {
		return NewTemplateError("rendering templates", err).WithSweep(r.sweepID).WithSimulation(simID)
	}
	if len(texts) != len(r.req.ConfigPaths) {
		return NewConfigError(
			fmt.Sprintf("%d rendered templates for %d config paths", len(texts), len(r.req.ConfigPaths)),
			nil).WithSweep(r.sweepID)
	}

	for i, text := range texts {
		path := substituteID(r.req.ConfigPaths[i], simID)
		if werr := r.writer.Write(path, []byte(text), !r.req.ErrorIfExists); werr != nil {
			if errors.Is(werr, files.ErrExists) {
				return NewFileExistsError("refusing to overwrite config file", werr).
					WithSimulation(simID).WithPath(path)
			}
			return NewPersistError("writing config file", werr).
				WithSimulation(simID).WithPath(path)
		}
		r.written = append(r.written, path)
		if r.tel != nil {
			r.tel.Metrics.RecordConfigWritten()
		}
	}

	if r.req.Verbose {
		r.logger.WithSimulationID(simID).
			WithField("parameters", set.String()).
			Info("prepared simulation")
	}

	if !r.req.RenderOnly {
		cmd := substituteID(r.req.Command, simID)
		if derr := r.disp.Dispatch(ctx, cmd, r.req.Serial); derr != nil {
			return NewDispatchError("dispatching simulation", derr).
				WithSweep(r.sweepID).WithSimulation(simID)
		}
		if r.tel != nil {
			r.tel.Metrics.RecordSimulationDispatched()
		}
	}

	if r.req.Journal != nil {
		if jerr := r.req.Journal.RecordSimulation(ctx, r.sweepID, simID, set.Map()); jerr != nil {
			return NewStoreError("recording simulation", jerr).
				WithSweep(r.sweepID).WithSimulation(simID)
		}
	}

	if r.req.Delay > 0 {
		select {
		case <-time.After(r.req.Delay):
		case <-ctx.Done():
			return NewDispatchError("sweep interrupted", ctx.Err()).WithSweep(r.sweepID)
		}
	}
	return nil
}

// substituteID replaces every {sim_id} placeholder in pattern. The
// substitution is literal; the result is not shell-escaped.
func substituteID(pattern, simID string) string {
	return strings.ReplaceAll(pattern, "{sim_id}", simID)
}
